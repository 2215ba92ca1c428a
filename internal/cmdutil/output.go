package cmdutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cli/go-gh/v2/pkg/jq"
	"gopkg.in/yaml.v3"

	"github.com/butterflysecurity/butterfly-cli/internal/ui"
)

// OutputJSON はデータを整形済み JSON で出力する
// filter が指定されていれば jq 式を適用する
func OutputJSON(w io.Writer, data any, filter string) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	if filter != "" {
		return jq.EvaluateFormatted(bytes.NewReader(jsonBytes), w, filter, "  ", ui.IsColorEnabled())
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, jsonBytes, "", "  "); err != nil {
		return fmt.Errorf("failed to indent JSON: %w", err)
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(w)
	return err
}

// OutputYAML はデータを YAML で出力する
func OutputYAML(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

// PrintJSON は Factory の出力先と --jq を使って JSON を出力する
func (f *Factory) PrintJSON(data any) error {
	return OutputJSON(f.IO.Out, data, f.JQ)
}
