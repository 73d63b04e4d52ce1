package vocab

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ImportVerbsCSV loads a verb word list. Expected columns: word, english,
// frequency, case, praeteritum, participle, regular. Column order follows the
// header row; unknown columns are ignored. Returns the number of entries
// imported.
func (s *Store) ImportVerbsCSV(ctx context.Context, r io.Reader) (int, error) {
	return s.importCSV(ctx, r, PartVerb)
}

// ImportNounsCSV loads a noun word list. Expected columns: word, english,
// frequency, article. Returns the number of entries imported.
func (s *Store) ImportNounsCSV(ctx context.Context, r io.Reader) (int, error) {
	return s.importCSV(ctx, r, PartNoun)
}

func (s *Store) importCSV(ctx context.Context, r io.Reader, pos PartOfSpeech) (int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"word", "english", "frequency"} {
		if _, ok := cols[required]; !ok {
			return 0, fmt.Errorf("csv header missing %q column", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	count := 0
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read csv line %d: %w", line, err)
		}

		freq, err := strconv.Atoi(field(record, "frequency"))
		if err != nil || freq < 1 || freq > 5 {
			return count, fmt.Errorf("csv line %d: frequency %q out of range 1-5", line, field(record, "frequency"))
		}

		e := &Entry{
			Word:         field(record, "word"),
			English:      field(record, "english"),
			PartOfSpeech: pos,
			Frequency:    freq,
		}
		if e.Word == "" || e.English == "" {
			return count, fmt.Errorf("csv line %d: empty word or english column", line)
		}

		switch pos {
		case PartNoun:
			e.Article = strings.ToLower(field(record, "article"))
			if e.Article != "der" && e.Article != "die" && e.Article != "das" {
				return count, fmt.Errorf("csv line %d: article %q is not der/die/das", line, e.Article)
			}
		case PartVerb:
			e.Case = field(record, "case")
			e.Praeteritum = field(record, "praeteritum")
			e.Participle = field(record, "participle")
			e.Regular = !strings.EqualFold(field(record, "regular"), "false")
		}

		if err := s.insert(ctx, e); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
