package service

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/entity"
)

// classificationImportHeader is the only header line accepted by the
// classification import path. It is validated literally before any data
// line is parsed.
const classificationImportHeader = "parentCode,code,description,measurementType"

// ErrInvalidImportHeader is returned when an import file does not start
// with the expected header line.
var ErrInvalidImportHeader = errors.New("invalid classification import header")

// ParseClassificationCSV reads a classification import file. The header
// must match exactly; a data line that does not split into four fields,
// or whose code field is empty, is silently dropped from the batch.
func ParseClassificationCSV(r io.Reader) ([]entity.ClassificationUpload, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read import header: %w", err)
		}
		return nil, fmt.Errorf("%w: empty file", ErrInvalidImportHeader)
	}
	header := strings.TrimRight(scanner.Text(), "\r")
	if header != classificationImportHeader {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrInvalidImportHeader, header, classificationImportHeader)
	}

	var out []entity.ClassificationUpload
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 4 {
			continue
		}
		if fields[1] == "" {
			continue
		}
		c := entity.ClassificationUpload{
			Code:            fields[1],
			Description:     fields[2],
			MeasurementType: fields[3],
		}
		if fields[0] != "" {
			parent := fields[0]
			c.ParentCode = &parent
		}
		out = append(out, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	return out, nil
}
