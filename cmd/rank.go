package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edsignal/opportunity-cli/internal/engine"
)

var (
	rankCIP         string
	rankCredential  int
	rankRegion      int
	rankMaxNetPrice float64
	rankTopK        int
	rankExportPath  string
	rankWeightsPath string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank program opportunities",
	Long:  "Scores and ranks programs from the local cache. Filters narrow the corpus before scoring; normalization runs over the filtered subset.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		weights := engine.DefaultWeights()
		if rankWeightsPath != "" {
			w, err := engine.LoadWeights(rankWeightsPath)
			if err != nil {
				return err
			}
			weights = w
			zap.L().Info("using custom weights", zap.String("path", rankWeightsPath))
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		eng := engine.New(st, weights)
		if err := eng.Load(ctx); err != nil {
			return err
		}

		filters := engine.Filters{
			CIPPrefix:       rankCIP,
			CredentialLevel: rankCredential,
			RegionID:        rankRegion,
			TopK:            rankTopK,
		}
		if cmd.Flags().Changed("max-net-price") {
			filters.MaxNetPrice = &rankMaxNetPrice
		}

		ranked, err := eng.Rank(ctx, filters)
		if err != nil {
			return err
		}

		if len(ranked) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No programs match the supplied filters.")
			return nil
		}

		renderReport(cmd.OutOrStdout(), ranked)

		if rankExportPath != "" {
			if err := exportCSV(rankExportPath, ranked); err != nil {
				return err
			}
			zap.L().Info("rankings exported",
				zap.String("path", rankExportPath),
				zap.Int("rows", len(ranked)),
			)
		}

		return nil
	},
}

// renderReport prints the ranked text report.
func renderReport(w io.Writer, ranked []engine.RankedProgram) {
	fmt.Fprintf(w, "Top %d Program Opportunities\n", len(ranked))
	fmt.Fprintln(w, "============================")

	for i, r := range ranked {
		fmt.Fprintf(w, "\n%2d. %s (%s)\n", i+1, r.ProgramTitle, r.CredentialName)
		fmt.Fprintf(w, "    %s, %s, %s (%s)\n", r.SchoolName, r.SchoolCity, r.SchoolState, r.RegionName)
		fmt.Fprintf(w, "    Opportunity Score: %.4f\n", r.OpportunityScore)
		fmt.Fprintf(w, "    Aid: %.4f | Affordability: %.4f | Supply Gap: %.4f\n",
			r.AidStrengthScore, r.AffordabilityScore, r.SupplyGapScore)
		tuition := "n/a"
		if r.ResolvedTuition != nil {
			tuition = fmt.Sprintf("$%.0f", *r.ResolvedTuition)
		}
		fmt.Fprintf(w, "    Net Price: $%.0f | Tuition: %s | Volatility: %.4f\n",
			r.AvgNetPriceResolved, tuition, r.ScholarshipVolatility)
		if r.HousingDiscrepancy {
			fmt.Fprintln(w, "    WARNING: off-campus housing cost well above on-campus")
		}
	}
}

var csvHeader = []string{
	"program_code",
	"program_title",
	"credential_name",
	"school_name",
	"school_city",
	"school_state",
	"region_name",
	"avg_net_price_resolved",
	"resolved_tuition",
	"aid_strength_score",
	"affordability_score",
	"supply_gap_score",
	"program_opportunity_score",
}

// exportCSV writes the ranked rows to path in ranking order.
func exportCSV(path string, ranked []engine.RankedProgram) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create export file %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return eris.Wrap(err, "write csv header")
	}

	for _, r := range ranked {
		row := []string{
			r.ProgramCode,
			r.ProgramTitle,
			r.CredentialName,
			r.SchoolName,
			r.SchoolCity,
			r.SchoolState,
			r.RegionName,
			formatFloat(r.AvgNetPriceResolved),
			formatFloatPtr(r.ResolvedTuition),
			formatFloat(r.AidStrengthScore),
			formatFloat(r.AffordabilityScore),
			formatFloat(r.SupplyGapScore),
			formatFloat(r.OpportunityScore),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "write csv row")
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "flush csv")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// formatFloatPtr renders a nullable value as an empty CSV cell.
func formatFloatPtr(p *float64) string {
	if p == nil {
		return ""
	}
	return formatFloat(*p)
}

func init() {
	rankCmd.Flags().StringVar(&rankCIP, "cip", "", "CIP code prefix filter (e.g. 11.07)")
	rankCmd.Flags().IntVar(&rankCredential, "credential", 0, "credential level filter (1-7)")
	rankCmd.Flags().IntVar(&rankRegion, "region", 0, "IPEDS region filter (1-9)")
	rankCmd.Flags().Float64Var(&rankMaxNetPrice, "max-net-price", 0, "maximum resolved net price")
	rankCmd.Flags().IntVar(&rankTopK, "top-k", engine.DefaultTopK, "number of results to return")
	rankCmd.Flags().StringVar(&rankExportPath, "export", "", "write ranked CSV to this path")
	rankCmd.Flags().StringVar(&rankWeightsPath, "weights", "", "YAML file overriding scoring weights")
	rootCmd.AddCommand(rankCmd)
}
