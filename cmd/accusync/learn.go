package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/accusync/internal/cli"
	"github.com/Veraticus/accusync/internal/common"
	"github.com/Veraticus/accusync/internal/engine"
	"github.com/Veraticus/accusync/internal/model"
	"github.com/spf13/cobra"
)

func learnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Teach a correction for one order row",
		Long: `Record an operator correction as manual patterns. The product name
(and the code, for product types) is the text the patterns are cut from.

Example:
  accusync learn --name "ハードケース iPhone15 Pro 花柄" --device "iPhone 15 Pro" --brand iPhone`,
		RunE: runLearn,
	}

	cmd.Flags().String("name", "", "Product name of the row")
	cmd.Flags().String("sku", "", "Product code or design number of the row")
	cmd.Flags().String("product-type", "", "Correct product type")
	cmd.Flags().String("device", "", "Correct device name")
	cmd.Flags().String("brand", "", "Brand of the corrected device")
	cmd.Flags().String("size", "", "Correct size code")

	return cmd
}

func runLearn(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("name")
	sku, _ := cmd.Flags().GetString("sku")
	productType, _ := cmd.Flags().GetString("product-type")
	device, _ := cmd.Flags().GetString("device")
	brand, _ := cmd.Flags().GetString("brand")
	size, _ := cmd.Flags().GetString("size")

	if strings.TrimSpace(productType+device+size) == "" {
		return common.NewUserError("nothing to learn: pass --product-type, --device or --size", common.ErrInvalidCorrection)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	row := model.NewRow("商品名", name, "sku", sku)
	learned, err := a.engine.LearnCorrection(cmd.Context(), engine.Correction{
		Row:         row,
		ProductType: productType,
		Device:      device,
		Brand:       brand,
		Size:        size,
	})
	out := cmd.OutOrStdout()
	for _, p := range learned {
		_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s: %q → %s (confidence %.2f, used %d times)",
			p.Kind, p.Pattern, p.TargetValue, p.Confidence, p.UsageCount)))
	}
	if err != nil {
		return fmt.Errorf("failed to learn correction: %w", err)
	}
	if len(learned) == 0 {
		_, _ = fmt.Fprintln(out, cli.FormatWarning("Nothing learned: device and size corrections need --name"))
	}
	return nil
}
