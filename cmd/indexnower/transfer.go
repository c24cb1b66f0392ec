package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/user/indexnow-service/internal/entity"
)

func (c *cli) exportCmd() *cobra.Command {
	var format, output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the whole state document as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.app.Sites.Load(cmd.Context())
			if err != nil {
				return err
			}
			encoded, err := encodeDocument(data, format)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = out(cmd).Write(encoded)
				return err
			}
			if err := os.WriteFile(output, encoded, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			c.log.Info("state exported", zap.String("path", output), zap.Int("sites", len(data.Sites)))
			return nil
		},
	}
	export.Flags().StringVar(&format, "format", "json", "output format (json or yaml)")
	export.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return export
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the state document with an exported one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			data, err := decodeDocument(raw, formatOf(args[0]))
			if err != nil {
				return err
			}
			if err := c.app.Sites.Save(cmd.Context(), data); err != nil {
				return err
			}
			c.log.Info("state imported", zap.String("path", args[0]), zap.Int("sites", len(data.Sites)))
			return nil
		},
	}
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}

func encodeDocument(data *entity.AppData, format string) ([]byte, error) {
	switch format {
	case "json":
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case "yaml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

func decodeDocument(raw []byte, format string) (*entity.AppData, error) {
	data := &entity.AppData{}
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(raw, data)
	default:
		err = json.Unmarshal(raw, data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s document: %w", format, err)
	}
	return data, nil
}
