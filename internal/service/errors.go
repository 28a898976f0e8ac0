package service

import "errors"

var (
	// ErrFileCount is returned when a wrist upload is not exactly two tables.
	ErrFileCount = errors.New("incorrect file count: need one accelerometer and one gyroscope table")
	// ErrUnrecognizedColumns is returned when a table is neither accelerometer nor gyroscope.
	ErrUnrecognizedColumns = errors.New("unrecognized columns")
	// ErrDuplicateSensor is returned when both wrist tables are the same sensor.
	ErrDuplicateSensor = errors.New("duplicate sensor")
	// ErrEmptyChannel is returned when a table has no usable rows.
	ErrEmptyChannel = errors.New("empty channel")
	// ErrMissingColumns is returned when an ActiGraph table lacks a required column.
	ErrMissingColumns = errors.New("missing columns")
)
