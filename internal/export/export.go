// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

// Package export writes and reads zstd-compressed JSON dumps of the store.
package export // import "github.com/toeirei/garmin-health-data/internal/export"

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/toeirei/garmin-health-data/internal/db"
	"github.com/toeirei/garmin-health-data/internal/model"
)

// DefaultFileName returns garmin-health-YYYY-MM-DD.json.zst for now.
func DefaultFileName(now time.Time) string {
	return fmt.Sprintf("garmin-health-%s.json.zst", now.Format(model.DateLayout))
}

// FileName appends ".zst" unless name already ends with it.
func FileName(name string) string {
	if strings.HasSuffix(name, ".zst") {
		return name
	}
	return name + ".zst"
}

// ToFile dumps the store into filename and returns the written dump.
func ToFile(ctx context.Context, store db.Store, filename string, now time.Time) (*model.Dump, error) {
	dump, err := store.Export(ctx)
	if err != nil {
		return nil, err
	}
	dump.ExportedAt = now.UTC()

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("could not create file: %w", err)
	}
	if err := Encode(file, dump); err != nil {
		_ = file.Close()
		return nil, err
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("could not close file: %w", err)
	}
	return dump, nil
}

// Encode streams dump as indented JSON through a zstd writer.
func Encode(w io.Writer, dump *model.Dump) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}
	encoder := json.NewEncoder(zw)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(dump); err != nil {
		_ = zw.Close()
		return fmt.Errorf("could not encode json to zstd writer: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("could not flush zstd writer: %w", err)
	}
	return nil
}

// ReadFile decodes a dump written by ToFile.
func ReadFile(filename string) (*model.Dump, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return Decode(file)
}

func Decode(r io.Reader) (*model.Dump, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zr.Close()

	var dump model.Dump
	if err := json.NewDecoder(zr).Decode(&dump); err != nil {
		return nil, fmt.Errorf("could not decode json from zstd reader: %w", err)
	}
	return &dump, nil
}
