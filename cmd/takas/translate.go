package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newTranslateCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "translate [item-id]",
		Short: "Translate one listing, or every pending active listing",
		Long: `Translate fills in the English and Arabic title and description of
listings written in Turkish.

With an item id, only that listing is translated, and only if its English or
Arabic title is missing. With --all, every active listing missing a
translation is processed in paced batches.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("give either an item id or --all")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if all {
				sum, err := a.translation.TranslateAll(ctx)
				fmt.Fprintf(out, "total: %d  translated: %d  failed: %d  fallbacks: %d\n",
					sum.Total, sum.Translated, sum.Failed, sum.Fallbacks)
				return err
			}

			res, err := a.translation.TranslateItem(ctx, args[0])
			if err != nil {
				return err
			}
			if res.AlreadyTranslated {
				fmt.Fprintln(out, "already translated")
				return nil
			}
			t := res.Translations
			fmt.Fprintf(out, "titleEn:       %s\ntitleAr:       %s\ndescriptionEn: %s\ndescriptionAr: %s\n",
				t.TitleEn, t.TitleAr, t.DescriptionEn, t.DescriptionAr)
			if res.Fallbacks > 0 {
				fmt.Fprintf(out, "%d field(s) kept the source text\n", res.Fallbacks)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Translate every active listing that is missing translations")
	return cmd
}
