package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/blueprintgo/internal/fsutil"
)

const fileExtension = ".hcl"

// findHCLFiles expands paths into a sorted, de-duplicated list of .hcl
// files. Directories are walked recursively.
func findHCLFiles(paths []string) ([]string, error) {
	return fsutil.ExpandPaths(paths, fileExtension)
}

// decodeFile parses one file and decodes its body into target.
func decodeFile(parser *hclparse.Parser, path string, target any) error {
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	diags = gohcl.DecodeBody(file.Body, nil, target)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	return nil
}

// decodeSource decodes in-memory HCL, used for documents that do not live
// on disk.
func decodeSource(src []byte, filename string, target any) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL %s: %w", filename, diags)
	}
	if diags := gohcl.DecodeBody(file.Body, nil, target); diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL %s: %w", filename, diags)
	}
	return nil
}
