package sharedvar

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"text/tabwriter"
)

// formatValue renders the stored value for a fixed set of primitive types
// plus string; anything else reports its type only.
func formatValue(data any) string {
	switch p := data.(type) {
	case *bool:
		return fmt.Sprint(*p)
	case *int:
		return fmt.Sprint(*p)
	case *int8:
		return fmt.Sprint(*p)
	case *int16:
		return fmt.Sprint(*p)
	case *int32:
		return fmt.Sprint(*p)
	case *int64:
		return fmt.Sprint(*p)
	case *uint:
		return fmt.Sprint(*p)
	case *uint8:
		return fmt.Sprint(*p)
	case *uint16:
		return fmt.Sprint(*p)
	case *uint32:
		return fmt.Sprint(*p)
	case *uint64:
		return fmt.Sprint(*p)
	case *float32:
		return fmt.Sprint(*p)
	case *float64:
		return fmt.Sprint(*p)
	case *string:
		return fmt.Sprintf("%q", *p)
	default:
		return "[unknown type]"
	}
}

func dumpLine[K comparable](rec *Record[K]) string {
	return fmt.Sprintf("%v:\t%s\tgroup=%v\ttype=%s\ttoken=%x\tcell=%x",
		rec.key, formatValue(rec.data), rec.groupID, rec.typ.String(),
		rec.token, reflect.ValueOf(rec.data).Pointer())
}

// Dump writes one line per variable to w: key, value, group id, type name,
// type token and backing address. Lines are sorted by rendered key so the
// output is stable. Read-only, diagnostics only.
func Dump[K comparable](w io.Writer, m *Map[K], comment string) {
	if comment != "" {
		fmt.Fprintln(w, comment)
	}
	lines := make([]string, 0, m.Size())
	m.Range(func(_ K, rec *Record[K]) bool {
		lines = append(lines, dumpLine(rec))
		return true
	})
	sort.Strings(lines)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, line := range lines {
		fmt.Fprintln(tw, line)
	}
	tw.Flush()
}

// DumpVar writes the dump line for a single variable. Returns false if the
// key is absent.
func DumpVar[K comparable](w io.Writer, m *Map[K], key K) bool {
	rec, ok := m.Find(key)
	if !ok {
		return false
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, dumpLine(rec))
	tw.Flush()
	return true
}
