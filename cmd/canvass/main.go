package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pedrohavay/canvass/canvass"
)

// Usage:
//
//	canvass schema
//	canvass normalize --factory person --key p1 < response.json
//	canvass query --factory person --mode or name=amy role=r1
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootParams struct {
	configPath string
	schemaPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	var params rootParams
	root := &cobra.Command{
		Use:           "canvass",
		Short:         "Schema-driven object store tools",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&params.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&params.schemaPath, "schema", "", "schema directory (overrides config)")
	root.PersistentFlags().BoolVar(&params.debug, "debug", false, "verbose logging")
	root.AddCommand(newSchemaCmd(&params), newNormalizeCmd(&params), newQueryCmd(&params))
	return root
}

func openSession(params *rootParams) (*canvass.Session, *zap.SugaredLogger, error) {
	cfg, err := canvass.LoadConfig(params.configPath)
	if err != nil {
		return nil, nil, err
	}
	if params.schemaPath != "" {
		cfg.SchemaPath = params.schemaPath
	}
	if params.debug {
		cfg.Debug = true
	}
	logger := zap.NewNop().Sugar()
	if cfg.Debug {
		if logger, err = canvass.NewLogger(true); err != nil {
			return nil, nil, err
		}
	}
	s, err := canvass.NewSession(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("session not created: %w", err)
	}
	return s, logger, nil
}

func newSchemaCmd(params *rootParams) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Dump the loaded schemas as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openSession(params)
			if err != nil {
				return err
			}
			out := map[string]any{}
			for _, name := range s.Model.Names() {
				out[name] = dumpSchema(s.Model.Get(name), s.Model.Resources[name])
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

func dumpSchema(sc *canvass.Schema, res *canvass.RestResource) map[string]any {
	props := []map[string]any{}
	for _, p := range sc.Props() {
		props = append(props, map[string]any{
			"id":      p.ID,
			"name":    p.ModelName,
			"path":    p.ModelPath,
			"type":    p.Type.String(),
			"factory": p.Factory,
		})
	}
	fields := []map[string]any{}
	sc.ForEachField(func(i int, f *canvass.Field) {
		fields = append(fields, map[string]any{
			"index":   i,
			"dialog":  f.DialogName,
			"display": f.DisplayName,
			"names":   f.ModelNames,
			"type":    f.Type.String(),
			"ref":     f.IsRef(),
		})
	})
	out := map[string]any{
		"label":  sc.Label,
		"idTag":  sc.IDTag,
		"props":  props,
		"fields": fields,
		"sort":   sc.SortOptions(),
	}
	if res != nil {
		out["resource"] = res
	}
	return out
}

func newNormalizeCmd(params *rootParams) *cobra.Command {
	var (
		argsPath string
		factory  string
		keys     []string
		snapshot string
	)
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Store a JSON response read from stdin and dump the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, logger, err := openSession(params)
			if err != nil {
				return err
			}
			desc := &canvass.StandardArgs{Factory: factory, ObjectStoreKeys: keys}
			if argsPath != "" {
				data, err := os.ReadFile(argsPath)
				if err != nil {
					return err
				}
				desc = &canvass.StandardArgs{}
				if err := json.Unmarshal(data, desc); err != nil {
					return fmt.Errorf("args %s: %w", argsPath, err)
				}
			}
			if desc.SchemaName == "" && desc.Factory != "" {
				desc.SchemaName = desc.Factory
			}
			if err := s.Model.BindArgs(desc); err != nil {
				return err
			}
			var response any
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&response); err != nil {
				return fmt.Errorf("response: %w", err)
			}
			if _, err := s.Normalizer.StoreServerResponse(response, desc); err != nil {
				return err
			}
			recs := s.Store.Records("")
			logger.Debugw("normalized response", "entries", len(recs))
			if snapshot != "" {
				f, err := os.Create(snapshot)
				if err != nil {
					return err
				}
				defer f.Close()
				return canvass.WriteSnapshot(f, recs)
			}
			return canvass.WriteRecordsJSONL(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().StringVar(&argsPath, "args", "", "JSON file holding the storage descriptor")
	cmd.Flags().StringVar(&factory, "factory", "", "entity type of the response")
	cmd.Flags().StringArrayVar(&keys, "key", []string{}, "store key; repeat for duplicates")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "write a MessagePack snapshot to this file instead of JSON lines")
	return cmd
}

func newQueryCmd(params *rootParams) *cobra.Command {
	var (
		factory string
		mode    string
	)
	cmd := &cobra.Command{
		Use:   "query [dialogName=value ...]",
		Short: "Print the REST query string for a filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openSession(params)
			if err != nil {
				return err
			}
			f, ok := s.Factories.Get(factory)
			if !ok {
				return fmt.Errorf("unknown factory %q", factory)
			}
			m, ok := canvass.ParseCombineMode(mode)
			if !ok {
				return fmt.Errorf("unknown mode %q", mode)
			}
			base := map[string]any{}
			for _, a := range args {
				k, v, found := strings.Cut(a, "=")
				if !found {
					return fmt.Errorf("filter term %q: want dialogName=value", a)
				}
				base[k] = v
			}
			filter := f.NewFilter(base, nil, canvass.FilterOptions{Mode: m})
			_, err = fmt.Fprintln(cmd.OutOrStdout(), canvass.FilterQuery(f.Schema, filter).Encode())
			return err
		},
	}
	cmd.Flags().StringVar(&factory, "factory", "", "entity type")
	cmd.Flags().StringVar(&mode, "mode", "and", "and, or or nor")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
