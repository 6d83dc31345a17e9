package dataset

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"
	"unsafe"
)

// Schema selects the CSV columns to load.
type Schema struct {
	QuasiIdentifiers []string
	Analyzed         []string
	// Delimiter defaults to ','. Quoted fields are not supported.
	Delimiter byte
	// Workers defaults to runtime.NumCPU().
	Workers int
}

func (s Schema) delimiter() byte {
	if s.Delimiter == 0 {
		return ','
	}
	return s.Delimiter
}

// --- 1. HELPERS ---

func unsafeToString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

func trimCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}

// alignChunk moves [start, end) onto line boundaries.
func alignChunk(content []byte, start, end int) (int, int) {
	if start > 0 {
		if i := bytes.IndexByte(content[start:], '\n'); i != -1 {
			start += i + 1
		} else {
			start = len(content)
		}
	}
	if end < len(content) {
		if i := bytes.IndexByte(content[end:], '\n'); i != -1 {
			end += i + 1
		} else {
			end = len(content)
		}
	}
	return start, end
}

// --- 2. MAIN LOADER ---

// LoadCSV reads a delimited file with a header row and dictionary encodes the
// selected columns. The file is split into line aligned chunks parsed in
// parallel with worker-local dictionaries, which are merged in chunk order so
// codes are deterministic regardless of scheduling.
func LoadCSV(path string, schema Schema, logger *slog.Logger) (*Raw, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	// A. Read File
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	raw, err := parseCSV(content, schema)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	logger.Info("dataset loaded", "path", path, "rows", raw.Input.Rows(),
		"quasi_identifiers", len(raw.Header), "analyzed", len(raw.AnalyzedHeader),
		"elapsed", time.Since(start))
	return raw, nil
}

func parseCSV(content []byte, schema Schema) (*Raw, error) {
	sep := schema.delimiter()

	// B. Header -> selected column slots
	headerEnd := bytes.IndexByte(content, '\n')
	if headerEnd == -1 {
		headerEnd = len(content)
	}
	header := bytes.Split(trimCR(content[:headerEnd]), []byte{sep})
	if headerEnd < len(content) {
		content = content[headerEnd+1:]
	} else {
		content = nil
	}

	names := append(append([]string{}, schema.QuasiIdentifiers...), schema.Analyzed...)
	slotOf := make([]int, len(header)) // field index -> selected slot, -1 = skip
	for i := range slotOf {
		slotOf[i] = -1
	}
	lastField := -1
	for slot, name := range names {
		found := false
		for i, h := range header {
			if string(bytes.TrimSpace(h)) == name {
				slotOf[i] = slot
				if i > lastField {
					lastField = i
				}
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%q: %w", name, ErrUnknownColumn)
		}
	}
	slots := len(names)

	numWorkers := schema.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if len(content) < numWorkers*64 {
		numWorkers = 1
	}
	chunkSize := len(content) / numWorkers

	// C. Count Rows (Parallel) for local allocation
	rowCounts := make([]int, numWorkers)
	var countWg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		countWg.Add(1)
		go func(idx int, start, end int) {
			defer countWg.Done()
			start, end = alignChunk(content, start, end)
			if start < end {
				rowCounts[idx] = bytes.Count(content[start:end], []byte{'\n'}) + 1
			}
		}(i, i*chunkSize, chunkEnd(i, numWorkers, chunkSize, len(content)))
	}
	countWg.Wait()

	// D. Parallel Parsing into worker-local dictionaries
	type localDicts struct {
		dicts []*Dictionary
		ids   [][]int32 // [slot][row]
		rows  int
		err   error
	}
	workerDicts := make([]*localDicts, numWorkers)

	var parseWg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		parseWg.Add(1)
		go func(idx int, start, end int) {
			defer parseWg.Done()

			ld := &localDicts{dicts: make([]*Dictionary, slots), ids: make([][]int32, slots)}
			for s := 0; s < slots; s++ {
				ld.dicts[s] = NewDictionary()
				ld.ids[s] = make([]int32, 0, rowCounts[idx])
			}
			workerDicts[idx] = ld

			start, end = alignChunk(content, start, end)
			if start >= end {
				return
			}
			chunk := content[start:end]
			pos := 0

			for pos < len(chunk) {
				nextPos := len(chunk)
				if i := bytes.IndexByte(chunk[pos:], '\n'); i != -1 {
					nextPos = pos + i
				}
				line := trimCR(chunk[pos:nextPos])
				pos = nextPos + 1
				if len(line) == 0 {
					continue
				}

				rest := line
				for field := 0; field <= lastField; field++ {
					value, tail, found := bytes.Cut(rest, []byte{sep})
					if !found && field < lastField {
						ld.err = fmt.Errorf("line %q: %w", line, ErrMalformedRow)
						return
					}
					rest = tail
					slot := slotOf[field]
					if slot < 0 {
						continue
					}
					d := ld.dicts[slot]
					id, ok := d.Code(unsafeToString(value))
					if !ok {
						id = d.Register(string(value))
					}
					ld.ids[slot] = append(ld.ids[slot], id)
				}
				ld.rows++
			}
		}(i, i*chunkSize, chunkEnd(i, numWorkers, chunkSize, len(content)))
	}
	parseWg.Wait()

	offsets := make([]int, numWorkers)
	totalRows := 0
	for w, ld := range workerDicts {
		if ld.err != nil {
			return nil, ld.err
		}
		offsets[w] = totalRows
		totalRows += ld.rows
	}

	// E. Allocate matrices ONCE, merge dictionaries (parallel per column)
	qi := len(schema.QuasiIdentifiers)
	raw := &Raw{
		Header:               append([]string{}, schema.QuasiIdentifiers...),
		Input:                NewMatrix(totalRows, qi),
		Dictionaries:         make([]*Dictionary, qi),
		AnalyzedHeader:       append([]string{}, schema.Analyzed...),
		Analyzed:             NewMatrix(totalRows, slots-qi),
		AnalyzedDictionaries: make([]*Dictionary, slots-qi),
	}

	var dictWg sync.WaitGroup
	mergeDict := func(slot int, global *Dictionary, target *Matrix, col int) {
		defer dictWg.Done()
		for w := 0; w < numWorkers; w++ {
			local := workerDicts[w]
			remap := make([]int32, local.dicts[slot].Len())
			for lid, s := range local.dicts[slot].Values() {
				remap[lid] = global.Register(s)
			}
			for k, id := range local.ids[slot] {
				target.Set(offsets[w]+k, col, remap[id])
			}
		}
	}

	for slot := 0; slot < slots; slot++ {
		global := NewDictionary()
		dictWg.Add(1)
		if slot < qi {
			raw.Dictionaries[slot] = global
			go mergeDict(slot, global, raw.Input, slot)
		} else {
			raw.AnalyzedDictionaries[slot-qi] = global
			go mergeDict(slot, global, raw.Analyzed, slot-qi)
		}
	}
	dictWg.Wait()

	return raw, nil
}

func chunkEnd(i, workers, chunkSize, total int) int {
	if i == workers-1 {
		return total
	}
	return (i + 1) * chunkSize
}

// LoadHierarchy reads a hierarchy file: one row per raw value, first field the
// raw value, following fields its generalizations by increasing level.
func LoadHierarchy(path string, dict *Dictionary, delimiter byte) (*Hierarchy, error) {
	if delimiter == 0 {
		delimiter = ','
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hierarchy %s: %w", path, err)
	}

	var rows [][]string
	for _, line := range bytes.Split(content, []byte{'\n'}) {
		line = trimCR(line)
		if len(line) == 0 {
			continue
		}
		fields := bytes.Split(line, []byte{delimiter})
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = string(f)
		}
		rows = append(rows, row)
	}
	h, err := NewHierarchy(rows, dict)
	if err != nil {
		return nil, fmt.Errorf("hierarchy %s: %w", path, err)
	}
	return h, nil
}

// Load reads the dataset at path and one hierarchy file per quasi-identifier,
// given in schema order, and builds the encoded dataset.
func Load(path string, schema Schema, hierarchies []string, logger *slog.Logger) (*Dataset, error) {
	if len(hierarchies) != len(schema.QuasiIdentifiers) {
		return nil, fmt.Errorf("%d quasi-identifiers, %d hierarchy files: %w",
			len(schema.QuasiIdentifiers), len(hierarchies), ErrHierarchyCount)
	}
	raw, err := LoadCSV(path, schema, logger)
	if err != nil {
		return nil, err
	}
	hs := make([]*Hierarchy, len(hierarchies))
	for i, p := range hierarchies {
		if hs[i], err = LoadHierarchy(p, raw.Dictionaries[i], schema.delimiter()); err != nil {
			return nil, err
		}
	}
	return New(raw, hs)
}
