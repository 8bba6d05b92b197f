package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/spf13/cobra"
)

var sequencesCmd = &cobra.Command{
	Use:   "sequences",
	Short: "Inspect document numbering",
}

var sequencesShowCmd = &cobra.Command{
	Use:     "show",
	Short:   "Print the next number of every document series of a tenant",
	Example: `  billingctl sequences show --tenant 6f1c2a9e-0d1b-4c55-9a0e-6a4f3c2b1d00`,
	RunE:    runSequencesShow,
}

func init() {
	sequencesShowCmd.Flags().String("tenant", "", "Tenant (organization) id")
	_ = sequencesShowCmd.MarkFlagRequired("tenant")
	sequencesCmd.AddCommand(sequencesShowCmd)
	rootCmd.AddCommand(sequencesCmd)
}

func runSequencesShow(cmd *cobra.Command, _ []string) error {
	raw, _ := cmd.Flags().GetString("tenant")
	tenantID, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid tenant id %q: %w", raw, err)
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tNEXT")
	for _, docType := range []invoicing.DocumentType{
		invoicing.DocumentTypeInvoice,
		invoicing.DocumentTypeQuote,
		invoicing.DocumentTypePayment,
		invoicing.DocumentTypeCreditNote,
	} {
		next, err := e.services.Repos.Sequences.PeekValue(cmd.Context(), tenantID, docType)
		if err != nil {
			return fmt.Errorf("read %s sequence: %w", docType, err)
		}
		fmt.Fprintf(w, "%s\t%s\n", docType, invoicing.FormatNumber(docType, next))
	}
	return w.Flush()
}
