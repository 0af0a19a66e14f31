package main

import (
	"fmt"
	"os"
	"path/filepath"

	"liquidation-export/internal/domain"
	"liquidation-export/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var renderOpts struct {
	ruc         string
	campaign    string
	address     string
	paymentDate string
	out         string
	format      string
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the liquidation of a taxpayer for a campaign",
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	f := renderCmd.Flags()
	f.StringVar(&renderOpts.ruc, "ruc", "", "taxpayer identifier (RUC)")
	f.StringVar(&renderOpts.campaign, "campaign", "", "campaign name")
	f.StringVar(&renderOpts.address, "address", "", "address printed on the document")
	f.StringVar(&renderOpts.paymentDate, "payment-date", "", "payment date, DD/MM/YYYY")
	f.StringVar(&renderOpts.out, "out", ".", "output directory")
	f.StringVar(&renderOpts.format, "format", "pdf", "pdf or xlsx")
	_ = renderCmd.MarkFlagRequired("ruc")
	_ = renderCmd.MarkFlagRequired("campaign")
}

func runRender(cmd *cobra.Command, _ []string) error {
	id, err := domain.ParseIdentifier(renderOpts.ruc)
	if err != nil {
		return err
	}
	campaign, err := domain.ParseCampaign(renderOpts.campaign)
	if err != nil {
		return err
	}
	if renderOpts.format != "pdf" && renderOpts.format != "xlsx" {
		return fmt.Errorf("unknown format %q", renderOpts.format)
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := service.NewLiquidationService(a.store, a.pdf, a.xlsx, service.ExportSinks{}, log)
	req := service.Request{
		Identifier:  id,
		Campaign:    campaign,
		Address:     renderOpts.address,
		PaymentDate: renderOpts.paymentDate,
	}

	generate := svc.Generate
	if renderOpts.format == "xlsx" {
		generate = svc.GenerateWorkbook
	}
	doc, err := generate(cmd.Context(), req)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(renderOpts.out, 0o755); err != nil {
		return err
	}
	path := filepath.Join(renderOpts.out, doc.FileName)
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	log.Info("liquidation written", zap.String("path", path), zap.Int("bytes", len(doc.Data)))
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
