package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// parsed Dialogue line split into its Format columns
type ASSDialogue struct {
	Fields       []string
	OriginalLine string
}

// parsed ASS/SSA subtitle file that preserves all metadata
type ASSFile struct {
	preEventsLines        []string
	formatLine            string
	formatColumns         []string
	textColumnIndex       int
	startColumnIndex      int
	endColumnIndex        int
	dialogues             []ASSDialogue
	nonDialogueEventLines []string
}

func parseASSFile(path string) (*ASSFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ASS file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	assFile := &ASSFile{
		textColumnIndex:  -1,
		startColumnIndex: -1,
		endColumnIndex:   -1,
	}

	scanner := bufio.NewScanner(file)
	inEventsSection := false
	lineNum := 0

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		trimmedLine := strings.TrimSpace(line)

		if strings.HasPrefix(trimmedLine, "[") &&
			strings.HasSuffix(trimmedLine, "]") {
			section := strings.ToLower(strings.Trim(trimmedLine, "[]"))
			inEventsSection = section == "events"
			assFile.preEventsLines = append(assFile.preEventsLines, line)
			continue
		}

		if !inEventsSection {
			assFile.preEventsLines = append(assFile.preEventsLines, line)
			continue
		}

		switch {
		case strings.HasPrefix(trimmedLine, "Format:"):
			if err := assFile.parseFormatLine(line); err != nil {
				return nil, err
			}
		case strings.HasPrefix(trimmedLine, "Dialogue:"):
			dialogue, err := assFile.parseDialogueLine(line)
			if err != nil {
				return nil, fmt.Errorf("failed to parse Dialogue at line %d: %w", lineNum, err)
			}
			assFile.dialogues = append(assFile.dialogues, dialogue)
		default:
			assFile.nonDialogueEventLines = append(assFile.nonDialogueEventLines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASS file: %w", err)
	}

	if assFile.formatLine == "" {
		return nil, fmt.Errorf("ASS file missing Format line in [Events] section")
	}

	return assFile, nil
}

func (f *ASSFile) parseFormatLine(line string) error {
	f.formatLine = line

	columns := strings.Split(strings.TrimPrefix(strings.TrimSpace(line), "Format:"), ",")
	for i, col := range columns {
		columns[i] = strings.TrimSpace(col)
		switch strings.ToLower(columns[i]) {
		case "text":
			f.textColumnIndex = i
		case "start":
			f.startColumnIndex = i
		case "end":
			f.endColumnIndex = i
		}
	}
	f.formatColumns = columns

	if f.textColumnIndex == -1 {
		return fmt.Errorf("ASS file missing Text column in Format line")
	}
	if f.startColumnIndex == -1 || f.endColumnIndex == -1 {
		return fmt.Errorf("ASS file missing Start or End column in Format line")
	}
	return nil
}

func (f *ASSFile) parseDialogueLine(line string) (ASSDialogue, error) {
	dialogue := ASSDialogue{OriginalLine: line}

	content := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "Dialogue:"))

	numColumns := len(f.formatColumns)
	if numColumns == 0 {
		return dialogue, fmt.Errorf("format columns not parsed yet")
	}

	// Text is the last column and may itself contain commas
	parts := strings.SplitN(content, ",", numColumns)
	if len(parts) < numColumns {
		return dialogue, fmt.Errorf("expected %d fields, got %d", numColumns, len(parts))
	}
	dialogue.Fields = parts

	return dialogue, nil
}

func parseASSTimestamp(ts string) time.Duration {
	ts = strings.TrimSpace(ts)
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}

	// split seconds and centiseconds
	secParts := strings.Split(parts[2], ".")
	if len(secParts) != 2 {
		return 0
	}

	seconds, err := strconv.Atoi(secParts[0])
	if err != nil {
		return 0
	}

	centis, err := strconv.Atoi(secParts[1])
	if err != nil {
		return 0
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(centis)*10*time.Millisecond
}

func (f *ASSFile) Format() Format {
	return FormatASS
}

func (f *ASSFile) Subtitle() *Subtitle {
	entries := make([]Entry, len(f.dialogues))

	for i, d := range f.dialogues {
		text := strings.ReplaceAll(d.Fields[f.textColumnIndex], "\\N", "\n")
		text = strings.ReplaceAll(text, "\\n", "\n")

		entries[i] = Entry{
			Index:     i + 1,
			StartTime: parseASSTimestamp(d.Fields[f.startColumnIndex]),
			EndTime:   parseASSTimestamp(d.Fields[f.endColumnIndex]),
			Text:      text,
		}
	}

	return &Subtitle{
		Entries: entries,
		Format:  string(FormatASS),
	}
}

// Replace rebuilds the dialogue list from entries. Each entry must carry the
// Index of a dialogue in this file; that line is kept with only its Start
// and End rewritten.
func (f *ASSFile) Replace(entries []Entry) error {
	dialogues := make([]ASSDialogue, 0, len(entries))

	for _, e := range entries {
		if e.Index < 1 || e.Index > len(f.dialogues) {
			return fmt.Errorf("entry index %d out of range (1-%d)", e.Index, len(f.dialogues))
		}

		src := f.dialogues[e.Index-1]
		fields := append([]string(nil), src.Fields...)
		fields[f.startColumnIndex] = formatASSTime(e.StartTime)
		fields[f.endColumnIndex] = formatASSTime(e.EndTime)

		dialogues = append(dialogues, ASSDialogue{Fields: fields, OriginalLine: src.OriginalLine})
	}

	f.dialogues = dialogues
	return nil
}

func (f *ASSFile) Write(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create ASS file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	writer := bufio.NewWriter(file)

	lines := make([]string, 0, len(f.preEventsLines)+1+len(f.dialogues)+len(f.nonDialogueEventLines))
	lines = append(lines, f.preEventsLines...)
	lines = append(lines, f.formatLine)
	for _, d := range f.dialogues {
		lines = append(lines, "Dialogue: "+strings.Join(d.Fields, ","))
	}
	lines = append(lines, f.nonDialogueEventLines...)

	for _, line := range lines {
		if _, err := writer.WriteString(line + "\n"); err != nil {
			return err
		}
	}

	return writer.Flush()
}
