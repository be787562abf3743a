package systemlogs

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
)

// LogFile describes one rotated log file on disk.
type LogFile struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// LogEntry is one parsed line from a log file. Raw carries the original
// line for anything the parser does not recognise.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp,omitempty"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Raw       string    `json:"raw"`
}

// Service reads the arbor file writer output back for the logs API.
type Service struct {
	logsDir string
	logger  arbor.ILogger
}

func NewService(logsDir string, logger arbor.ILogger) *Service {
	return &Service{logsDir: logsDir, logger: logger}
}

// List returns the .log files in the logs directory, newest first.
func (s *Service) List() ([]LogFile, error) {
	entries, err := os.ReadDir(s.logsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, common.Errorf(common.KindFatal, "failed to read logs directory: %v", err)
	}

	var files []LogFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, LogFile{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})
	return files, nil
}

// Tail returns up to limit entries from the end of the named log file,
// optionally filtered to a single level. The filename is reduced to its
// base to keep reads inside the logs directory.
func (s *Service) Tail(filename string, limit int, level string) ([]LogEntry, error) {
	path := filepath.Join(s.logsDir, filepath.Base(filename))

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.Errorf(common.KindNotFound, "log file %s not found", filepath.Base(filename))
		}
		return nil, common.Errorf(common.KindFatal, "failed to open log file: %v", err)
	}
	defer file.Close()

	wantLevel := normalizeLevel(level)

	var entries []LogEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		entry := parseLine(scanner.Text())
		if wantLevel != "" && entry.Level != wantLevel {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, common.Errorf(common.KindFatal, "failed to read log file: %v", err)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// parseLine handles the arbor text format "15:04:05 INF > message".
// Unrecognised lines come back whole with the level defaulted.
func parseLine(line string) LogEntry {
	entry := LogEntry{Raw: line, Level: "INF", Message: line}

	idx := strings.Index(line, ">")
	fields := strings.Fields(line)
	if idx < 0 || len(fields) < 3 {
		return entry
	}

	if t, err := time.Parse("15:04:05", fields[0]); err == nil {
		now := time.Now()
		entry.Timestamp = time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)
	}
	entry.Level = normalizeLevel(fields[1])
	if idx+1 < len(line) {
		entry.Message = strings.TrimSpace(line[idx+1:])
	}
	return entry
}

func normalizeLevel(level string) string {
	switch strings.ToUpper(level) {
	case "":
		return ""
	case "TRACE", "TRC":
		return "TRC"
	case "DEBUG", "DBG":
		return "DBG"
	case "WARN", "WARNING", "WRN":
		return "WRN"
	case "ERROR", "ERR":
		return "ERR"
	case "FATAL", "FTL":
		return "FTL"
	default:
		return "INF"
	}
}
