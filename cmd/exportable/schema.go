package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/exportable/pkg/cli"
	"mercator-hq/exportable/pkg/schema"
)

var schemaFlags struct {
	format string
}

var schemaCmd = &cobra.Command{
	Use:   "schema [TYPE]",
	Short: "Print the schema of a record type",
	Long: `Print the CUE or JSON Schema definition of a record type. Without TYPE
the names of the defined types are listed.

Examples:
  # List types
  exportable schema -t types.yaml

  # JSON Schema of the source view
  exportable schema tank -t types.yaml --format jsonschema`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().StringVarP(&schemaFlags.format, "format", "f", schema.ValidatorCUE, "schema language (cue, jsonschema)")
}

func runSchema(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.close()

	out := commandOut(cmd)
	if len(args) == 0 {
		for _, name := range env.types.Names() {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	typ, err := env.types.Get(args[0])
	if err != nil {
		return err
	}
	switch strings.ToLower(schemaFlags.format) {
	case schema.ValidatorCUE:
		_, err = fmt.Fprint(out, schema.CUESchema(typ))
		return err
	case schema.ValidatorJSONSchema, "json-schema":
		data, err := schema.JSONSchemaBytes(typ)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	return cli.NewConfigError("format", fmt.Sprintf("unknown schema format %q (valid: cue, jsonschema)", schemaFlags.format))
}
