package translate

import (
	"context"
	"sync"

	"github.com/takascemberi/takas/internal/model"
)

// Content holds the per-field results of translating one listing.
type Content struct {
	TitleEn       Result
	TitleAr       Result
	DescriptionEn Result
	DescriptionAr Result
}

// Translations returns the texts to persist. Fields that fell back carry the
// source text.
func (c Content) Translations() model.Translations {
	return model.Translations{
		TitleEn:       c.TitleEn.Text,
		TitleAr:       c.TitleAr.Text,
		DescriptionEn: c.DescriptionEn.Text,
		DescriptionAr: c.DescriptionAr.Text,
	}
}

// Fallbacks counts the fields that kept the source text.
func (c Content) Fallbacks() int {
	n := 0
	for _, r := range []Result{c.TitleEn, c.TitleAr, c.DescriptionEn, c.DescriptionAr} {
		if r.Fallback {
			n++
		}
	}
	return n
}

// TranslateContent translates a listing's title and description from source
// into English and Arabic. The two languages of each field are requested
// concurrently; the title is done before the description.
func TranslateContent(ctx context.Context, tr Translator, source, title, description string) Content {
	var c Content
	c.TitleEn, c.TitleAr = translatePair(ctx, tr, source, title)
	c.DescriptionEn, c.DescriptionAr = translatePair(ctx, tr, source, description)
	return c
}

func translatePair(ctx context.Context, tr Translator, source, text string) (en, ar Result) {
	var wg sync.WaitGroup
	wg.Go(func() { en = tr.Translate(ctx, text, source, model.LangEnglish) })
	wg.Go(func() { ar = tr.Translate(ctx, text, source, model.LangArabic) })
	wg.Wait()
	return en, ar
}
