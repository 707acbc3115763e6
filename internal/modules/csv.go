package modules

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/forgelang/forge/internal/vm"
)

// InstallCSV registers the `csv` namespace: csv.parse(str) returns an array
// of arrays of strings, csv.stringify(rows) the inverse.
func InstallCSV(m *vm.Machine) {
	namespace(m, "csv", map[string]vm.NativeFunc{
		"parse":     csvParse,
		"stringify": csvStringify,
	})
}

func csvParse(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 1 {
		return vm.NullValue(), fmt.Errorf("csv.parse() expects 1 argument, got %d", len(args))
	}
	r := csv.NewReader(strings.NewReader(vm.ToString(m.Heap(), args[0])))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return vm.NullValue(), fmt.Errorf("csv.parse(): %w", err)
	}
	rowRefs := make([]vm.Value, len(records))
	for i, row := range records {
		cellRefs := make([]vm.Value, len(row))
		for j, cell := range row {
			cellRefs[j] = m.Heap().NewString(cell)
		}
		rowRefs[i] = m.Heap().NewArray(cellRefs)
	}
	return m.Heap().NewArray(rowRefs), nil
}

func csvStringify(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 1 {
		return vm.NullValue(), fmt.Errorf("csv.stringify() expects 1 argument, got %d", len(args))
	}
	rows, err := arrayElems(m, args[0], "csv.stringify()")
	if err != nil {
		return vm.NullValue(), err
	}
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	for _, rowVal := range rows {
		row, err := arrayElems(m, rowVal, "csv.stringify(): each row")
		if err != nil {
			return vm.NullValue(), err
		}
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = vm.ToString(m.Heap(), cell)
		}
		if err := w.Write(record); err != nil {
			return vm.NullValue(), fmt.Errorf("csv.stringify(): %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return vm.NullValue(), fmt.Errorf("csv.stringify(): %w", err)
	}
	return m.Heap().NewString(sb.String()), nil
}
