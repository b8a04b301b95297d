// Command metricsgen regenerates pkg/metrics/generated_collectors.go
// from the `metric:"..."` struct tags on host.Stats and guest.Stats. It
// is adapted from the teacher's cmd/prom-metrics-gen, which performs
// the same AST walk over a `tcpi:"..."` tag on linux.TCPInfo.
package main

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log"
	"os"
	"reflect"
	"strings"
	"text/template"
)

const outputPath = "pkg/metrics/generated_collectors.go"

// source names one struct to scan for tagged fields and, if guestLabel
// is true, the metric gains a "guest" label (one coordinator per
// tracked peer rather than a single process-wide value).
type source struct {
	file       string
	structName string
	guestLabel bool
}

var sources = []source{
	{file: "pkg/host/stats.go", structName: "Stats", guestLabel: false},
	{file: "pkg/guest/stats.go", structName: "Stats", guestLabel: true},
}

// Metric represents a single metric to be exported. Used by the
// template to generate the collector code. The template lives in
// template.tmpl alongside this file.
type Metric struct {
	Name       string
	FieldName  string
	StructName string // "host.Stats" or "guest.Stats", qualified for the template
	Help       string
	Type       string // "Gauge" or "Counter"
	GuestLabel bool
}

func main() {
	var metrics []Metric
	var structs []string

	for _, src := range sources {
		fset := token.NewFileSet()
		node, err := parser.ParseFile(fset, src.file, nil, parser.ParseComments)
		if err != nil {
			log.Fatal(err)
		}

		var qualified string
		if src.guestLabel {
			qualified = "guest." + src.structName
		} else {
			qualified = "host." + src.structName
		}
		structs = append(structs, qualified)

		ast.Inspect(node, func(n ast.Node) bool {
			typeSpec, ok := n.(*ast.TypeSpec)
			if !ok || typeSpec.Name.Name != src.structName {
				return true
			}
			s, ok := typeSpec.Type.(*ast.StructType)
			if !ok {
				return true
			}

			for _, f := range s.Fields.List {
				if f.Tag == nil {
					continue
				}
				tag := reflect.StructTag(strings.Trim(f.Tag.Value, "`"))
				metricTag, ok := tag.Lookup("metric")
				if !ok {
					continue
				}

				metric := Metric{
					FieldName:  f.Names[0].Name,
					StructName: qualified,
					GuestLabel: src.guestLabel,
				}

				for _, kv := range strings.Split(metricTag, ",") {
					i := strings.Index(kv, "=")
					if i == -1 {
						log.Printf("malformed metric tag segment %q on %s.%s", kv, qualified, metric.FieldName)
						continue
					}
					key, value := kv[:i], kv[i+1:]
					switch key {
					case "name":
						metric.Name = value
					case "prom_type":
						switch value {
						case "gauge":
							metric.Type = "Gauge"
						case "counter":
							metric.Type = "Counter"
						}
					case "prom_help":
						metric.Help = value
					}
				}
				metrics = append(metrics, metric)
			}
			return false
		})
	}

	t, err := template.ParseFiles("cmd/metricsgen/template.tmpl")
	if err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	data := struct {
		Structs string
		Metrics []Metric
	}{Structs: strings.Join(structs, ", "), Metrics: metrics}
	if err := t.Execute(&buf, data); err != nil {
		log.Fatal(err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Generated %s\n", outputPath)
}
