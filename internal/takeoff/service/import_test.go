package service

import (
	"errors"
	"strings"
	"testing"
)

func TestParseClassificationCSV(t *testing.T) {
	csv := "parentCode,code,description,measurementType\r\n" +
		",03,Concrete,Area\r\n" +
		"03,03 30,Cast-in-Place Concrete,Volume\r\n"

	batch, err := ParseClassificationCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseClassificationCSV failed: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("Expected 2 uploads, got %d", len(batch))
	}

	if batch[0].ParentCode != nil {
		t.Errorf("Expected nil parent for root code, got %q", *batch[0].ParentCode)
	}
	if batch[0].Code != "03" || batch[0].Description != "Concrete" || batch[0].MeasurementType != "Area" {
		t.Errorf("Unexpected root upload: %+v", batch[0])
	}

	if batch[1].ParentCode == nil || *batch[1].ParentCode != "03" {
		t.Errorf("Expected parent '03', got %v", batch[1].ParentCode)
	}
}

func TestParseClassificationCSVRejectsHeader(t *testing.T) {
	cases := []string{
		"code,parentCode,description,measurementType\n,03,Concrete,Area",
		"parentCode;code;description;measurementType\n",
		"",
	}
	for _, csv := range cases {
		if _, err := ParseClassificationCSV(strings.NewReader(csv)); !errors.Is(err, ErrInvalidImportHeader) {
			t.Errorf("Expected ErrInvalidImportHeader for %q, got %v", csv, err)
		}
	}
}

func TestParseClassificationCSVDropsMalformedLines(t *testing.T) {
	csv := "parentCode,code,description,measurementType\n" +
		",03,Concrete,Area\n" +
		"too,few\n" +
		",,missing code,Area\n" +
		"\n" +
		"one,too,many,fields,here\n" +
		",09,Finishes,Count\n"

	batch, err := ParseClassificationCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseClassificationCSV failed: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("Expected malformed lines dropped, got %d uploads", len(batch))
	}
	if batch[0].Code != "03" || batch[1].Code != "09" {
		t.Errorf("Unexpected surviving codes: %q, %q", batch[0].Code, batch[1].Code)
	}
}

func TestParseClassificationCSVHeaderOnly(t *testing.T) {
	batch, err := ParseClassificationCSV(strings.NewReader("parentCode,code,description,measurementType\n"))
	if err != nil {
		t.Fatalf("ParseClassificationCSV failed: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("Expected empty batch, got %d uploads", len(batch))
	}
}
