package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// #region export

// ExportJSONL writes a chain as one canonical JSON object per line. When
// mode is PrivacyAnonymized the exported session id is randomized (linkage
// within the export is preserved; linkage to the live store is not).
func ExportJSONL(w io.Writer, chain []GovernanceEvent, mode PrivacyMode) error {
	exportID := ""
	if mode == PrivacyAnonymized && len(chain) > 0 {
		exportID = uuid.New().String()
	}

	bw := bufio.NewWriter(w)
	for i, e := range chain {
		if exportID != "" {
			e.SessionID = exportID
		}
		line, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", i, err)
		}
		if _, err := bw.Write(line); err != nil {
			return fmt.Errorf("write event %d: %w", i, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("write event %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// #endregion export

// #region import

// ReadJSONL parses a JSONL trace back into an ordered chain.
func ReadJSONL(r io.Reader) ([]GovernanceEvent, error) {
	var chain []GovernanceEvent
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e GovernanceEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("parse line %d: %w", line, err)
		}
		chain = append(chain, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return chain, nil
}

// #endregion import
