package errors

import (
	"fmt"
	"strings"
)

// ErrorType says which stage of a dataset load failed.
type ErrorType string

const (
	// ErrTypeStorage means the source file could not be opened.
	ErrTypeStorage ErrorType = "STORAGE"
	// ErrTypeParsing means the file opened but a record or cell was unreadable.
	ErrTypeParsing ErrorType = "PARSING"
	// ErrTypeSchema means the header lacks required columns.
	ErrTypeSchema ErrorType = "SCHEMA"
)

// AppError describes a failed dataset load and where in the source it
// happened. Location fields are left zero when they do not apply.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error

	Path    string
	Sheet   string
	Line    int // 1-based, header is line 1
	Column  string
	Value   string
	Missing []string
}

func (e *AppError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Type, e.Message)
	if loc := e.location(); loc != "" {
		b.WriteString(" (")
		b.WriteString(loc)
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *AppError) location() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, e.Path)
	}
	if e.Sheet != "" {
		parts = append(parts, "sheet "+e.Sheet)
	}
	if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("line %d", e.Line))
	}
	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column %q", e.Column))
	}
	if e.Line > 0 && e.Column != "" {
		parts = append(parts, fmt.Sprintf("value %q", e.Value))
	}
	return strings.Join(parts, ", ")
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// InFile records the source path. It returns e for chaining.
func (e *AppError) InFile(path string) *AppError {
	e.Path = path
	return e
}

// InSheet records the worksheet a workbook load was reading.
func (e *AppError) InSheet(name string) *AppError {
	e.Sheet = name
	return e
}

// AtCell records the offending cell.
func (e *AppError) AtCell(line int, column, value string) *AppError {
	e.Line = line
	e.Column = column
	e.Value = value
	return e
}

// NewStorageError reports a source that could not be opened.
func NewStorageError(message string, cause error) *AppError {
	return &AppError{Type: ErrTypeStorage, Message: message, Cause: cause}
}

// NewParsingError reports unreadable content.
func NewParsingError(message string, cause error) *AppError {
	return &AppError{Type: ErrTypeParsing, Message: message, Cause: cause}
}

// NewSchemaError reports required columns absent from the header.
func NewSchemaError(missing []string) *AppError {
	return &AppError{
		Type:    ErrTypeSchema,
		Message: "missing required columns: " + strings.Join(missing, ", "),
		Missing: missing,
	}
}
