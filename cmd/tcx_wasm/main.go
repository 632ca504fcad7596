//go:build js && wasm

package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"syscall/js"
	"time"

	tcxanalyzer "github.com/lucasjlepore/tcx-analyzer"
	"github.com/lucasjlepore/tcx-analyzer/pipeline"
)

func main() {
	js.Global().Set("analyzeActivities", js.FuncOf(analyzeActivities))
	select {}
}

// analyzeActivities(files: Array<{name: string, bytes: Uint8Array}>, options?: {skip_chart: bool})
func analyzeActivities(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return failure("expected arguments: files(Array<{name, bytes}>), options(object)")
	}
	filesArg := args[0]
	if filesArg.IsUndefined() || filesArg.IsNull() || filesArg.Length() == 0 {
		return failure("at least one file is required")
	}
	optsArg := js.Undefined()
	if len(args) > 1 {
		optsArg = args[1]
	}

	sources := make([]pipeline.SourceBytes, 0, filesArg.Length())
	for i := 0; i < filesArg.Length(); i++ {
		entry := filesArg.Index(i)
		name := getString(entry, "name", fmt.Sprintf("input-%d.tcx", i))
		data := entry.Get("bytes")
		if data.IsUndefined() || data.IsNull() || data.Get("length").Int() == 0 {
			return failure(fmt.Sprintf("file %q has no bytes", name))
		}
		buf := make([]byte, data.Get("length").Int())
		if n := js.CopyBytesToGo(buf, data); n == 0 {
			return failure(fmt.Sprintf("failed to read bytes of %q from JS input", name))
		}
		sources = append(sources, pipeline.SourceBytes{Name: name, Data: buf})
	}

	result, err := pipeline.RunBytes(pipeline.BytesOptions{
		Sources:   sources,
		SkipChart: getBool(optsArg, "skip_chart"),
	})
	if err != nil {
		return failure(err.Error())
	}

	zipBytes, err := zipArtifacts(result.Files)
	if err != nil {
		return failure(fmt.Sprintf("create zip: %v", err))
	}
	payload := js.Global().Get("Uint8Array").New(len(zipBytes))
	js.CopyBytesToJS(payload, zipBytes)

	fileNames := make([]string, 0, len(result.Files))
	for name := range result.Files {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	failures := make([]any, len(result.Failures))
	for i, f := range result.Failures {
		failures[i] = map[string]any{"path": f.Path, "error": f.Error}
	}

	return map[string]any{
		"ok":         true,
		"zip":        payload,
		"report":     string(result.Files[pipeline.ReportFile]),
		"pace":       pointsToAny(tcxanalyzer.PaceSeries(result.Stats)),
		"heart_rate": pointsToAny(tcxanalyzer.HeartRateSeries(result.Stats)),
		"failures":   failures,
		"files":      stringsToAny(fileNames),
	}
}

func failure(msg string) map[string]any {
	return map[string]any{"ok": false, "error": msg}
}

func zipArtifacts(files map[string][]byte) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fixedTime := time.Unix(0, 0).UTC()

	for _, name := range names {
		h := &zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		}
		h.Modified = fixedTime
		w, err := zw.CreateHeader(h)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func getString(v js.Value, key, fallback string) string {
	if v.IsUndefined() || v.IsNull() {
		return fallback
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() || out.Type() != js.TypeString {
		return fallback
	}
	if s := out.String(); s != "" {
		return s
	}
	return fallback
}

func getBool(v js.Value, key string) bool {
	if v.IsUndefined() || v.IsNull() {
		return false
	}
	out := v.Get(key)
	return out.Type() == js.TypeBoolean && out.Bool()
}

func pointsToAny(points []tcxanalyzer.Point) []any {
	out := make([]any, len(points))
	for i, p := range points {
		out[i] = []any{p.Index, p.Value}
	}
	return out
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
