package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/locvowork/poa_management/apigateway/internal/logger"
	"github.com/locvowork/poa_management/apigateway/pkg/dataflow"
	"github.com/locvowork/poa_management/apigateway/pkg/poaexcel"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "poaexcel",
		Short: "Convert POA budget workbooks to JSON and back",
		Long: `poaexcel reads the activity and task budget of a POA workbook into JSON
and renders task records back into the institutional POA layout.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newParseCmd(), newGenerateCmd(), newRoundTripCmd())
	return rootCmd
}

type parseOutput struct {
	File   string                `json:"archivo"`
	Result *poaexcel.ParseResult `json:"resultado,omitempty"`
	Error  string                `json:"error,omitempty"`
	index  int
}

func newParseCmd() *cobra.Command {
	var (
		sheet      string
		outputPath string
		pretty     bool
		workers    int
	)
	cmd := &cobra.Command{
		Use:   "parse FILE...",
		Short: "Parse POA workbooks into JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputs := parseFiles(cmd.Context(), args, sheet, workers)

			var payload interface{} = outputs
			if len(outputs) == 1 {
				if outputs[0].Error != "" {
					return fmt.Errorf("%s: %s", outputs[0].File, outputs[0].Error)
				}
				payload = outputs[0].Result
			}
			data, err := marshal(payload, pretty)
			if err != nil {
				return fmt.Errorf("serialization failed: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), outputPath, data)
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to parse")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().IntVar(&workers, "workers", 4, "Files parsed concurrently")
	_ = cmd.MarkFlagRequired("sheet")
	return cmd
}

// parseFiles parses every file concurrently and returns the outputs in
// argument order.
func parseFiles(ctx context.Context, files []string, sheet string, workers int) []parseOutput {
	if ctx == nil {
		ctx = context.Background()
	}
	items := make([]interface{}, len(files))
	for i, f := range files {
		items[i] = parseOutput{File: f, index: i}
	}

	parsed := dataflow.Map(ctx, dataflow.From(ctx, items...), func(msg interface{}) (interface{}, error) {
		out := msg.(parseOutput)
		result, err := parseFile(out.File, sheet)
		if err != nil {
			logger.WarnLog(ctx, "failed to parse %s: %v", out.File, err)
			out.Error = err.Error()
			return out, nil
		}
		out.Result = result
		return out, nil
	}, dataflow.WithWorkers(workers))

	outputs := make([]parseOutput, 0, len(files))
	_ = dataflow.ForEach(ctx, parsed, func(msg interface{}) error {
		outputs = append(outputs, msg.(parseOutput))
		return nil
	})
	sort.Slice(outputs, func(i, j int) bool { return outputs[i].index < outputs[j].index })
	return outputs
}

func parseFile(path, sheet string) (*poaexcel.ParseResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return poaexcel.Parse(content, sheet)
}

func newGenerateCmd() *cobra.Command {
	var (
		outputPath   string
		templatePath string
		empty        bool
	)
	cmd := &cobra.Command{
		Use:   "generate RECORDS.json",
		Short: "Render task records into a POA workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var records []poaexcel.TaskRecord
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("invalid records file: %w", err)
			}
			generator, err := newGenerator(templatePath)
			if err != nil {
				return err
			}
			return writeWorkbook(generator, outputPath, records, empty)
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output workbook path")
	cmd.Flags().StringVar(&templatePath, "template", "", "YAML layout template")
	cmd.Flags().BoolVar(&empty, "empty", false, "Render an empty POA with headers only")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newRoundTripCmd() *cobra.Command {
	var (
		sheet        string
		year         string
		code         string
		outputPath   string
		templatePath string
	)
	cmd := &cobra.Command{
		Use:   "roundtrip FILE",
		Short: "Parse a POA workbook and render it again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := parseFile(args[0], sheet)
			if err != nil {
				return err
			}
			records := poaexcel.Flatten(result, year, code)
			empty := len(records) == 0
			if empty {
				records = []poaexcel.TaskRecord{{POAYear: year, ProjectCode: code}}
			}
			generator, err := newGenerator(templatePath)
			if err != nil {
				return err
			}
			if err := writeWorkbook(generator, outputPath, records, empty); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d activities, %d tasks written to %s\n",
				len(result.Activities), result.TaskCount(), outputPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to parse")
	cmd.Flags().StringVar(&year, "year", "", "POA year")
	cmd.Flags().StringVar(&code, "code", "", "Project code")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output workbook path")
	cmd.Flags().StringVar(&templatePath, "template", "", "YAML layout template")
	for _, name := range []string{"sheet", "year", "code", "output"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newGenerator(templatePath string) (*poaexcel.Generator, error) {
	if templatePath == "" {
		return poaexcel.NewGenerator(), nil
	}
	tpl, err := poaexcel.LoadTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	return poaexcel.NewGenerator(poaexcel.WithTemplate(tpl)), nil
}

func writeWorkbook(g *poaexcel.Generator, path string, records []poaexcel.TaskRecord, empty bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := g.WriteTo(f, records, empty); err != nil {
		f.Close()
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return f.Close()
}

func marshal(v interface{}, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := fmt.Fprintln(stdout, string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
