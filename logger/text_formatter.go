package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/kr/pretty"
	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// width of the key column
const keyWidth = 20

var baseTimestamp = time.Now()

// textFormatter prints one header line ("<ns> <msg>") followed by one
// line per field. The cycle ID, when present, is printed first.
type textFormatter struct {
	TextFormatConfig
	json jsonFormatter
}

func isColorTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return runtime.GOOS != "windows" && isatty.IsTerminal(f.Fd())
}

func levelColor(l logrus.Level) aurora.Color {
	switch l {
	case logrus.DebugLevel:
		return aurora.MagentaFg
	case logrus.WarnLevel:
		return aurora.BrownFg
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return aurora.RedFg
	}
	return aurora.CyanFg
}

// Format writes a colored entry when attached to a terminal and falls back
// to JSON otherwise, so piped logs stay machine readable.
func (f *textFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if f.DisableColors || !(f.ForceColors || isColorTerminal(entry.Logger.Out)) {
		return f.json.Format(entry)
	}

	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	data := make(map[string]interface{}, len(entry.Data)+1)
	for k, v := range entry.Data {
		data[k] = v
	}
	if ts := f.timestamp(entry.Time); ts != "" {
		data["time"] = ts
	}

	color := levelColor(entry.Level)
	ns, _ := data["ns"].(string)
	fmt.Fprintf(b, "%s%-*s %s\n", f.Indent, keyWidth, aurora.Colorize(ns, color|aurora.BoldFm), entry.Message)

	for _, k := range f.sortKeys(data) {
		fmt.Fprintf(b, "%s%-*s %v\n", f.Indent, keyWidth, aurora.Colorize(k, color), formatValue(data[k]))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *textFormatter) timestamp(t time.Time) string {
	switch {
	case f.DisableTimestamp:
		return ""
	case f.FullTimestamp:
		return t.Format(f.TimestampFormat)
	}
	// seconds since the process started
	return fmt.Sprintf("%04d", int(t.Sub(baseTimestamp)/time.Second))
}

// formatValue pretty prints composite values and indents continuation
// lines of multi-line strings under the value column.
func formatValue(v interface{}) interface{} {
	switch v.(type) {
	case string, bool, error, fmt.Stringer,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
	default:
		v = pretty.Sprint(v)
	}

	s, ok := v.(string)
	if !ok {
		return v
	}
	return strings.ReplaceAll(s, "\n", "\n"+strings.Repeat(" ", keyWidth+1))
}

// sortKeys orders the field keys: "ns" is dropped since it heads the
// entry, "cycleID" comes first, the rest follow sorted.
func (f *textFormatter) sortKeys(data map[string]interface{}) []string {
	keys := make([]string, 0, len(data))
	_, hasCycle := data["cycleID"]
	for k := range data {
		if k != "ns" && k != "cycleID" {
			keys = append(keys, k)
		}
	}

	if !f.DisableSorting {
		sort.Strings(keys)
	}
	if hasCycle {
		keys = append([]string{"cycleID"}, keys...)
	}
	return keys
}
