package model

// Languages used by the marketplace. Listings are written in Turkish.
const (
	LangTurkish = "tr"
	LangEnglish = "en"
	LangArabic  = "ar"
)

// Translations holds the four machine-translated fields of an item.
type Translations struct {
	TitleEn       string `json:"titleEn"`
	TitleAr       string `json:"titleAr"`
	DescriptionEn string `json:"descriptionEn"`
	DescriptionAr string `json:"descriptionAr"`
}
