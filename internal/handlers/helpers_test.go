package handlers

import "strconv"

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func strPtr(s string) *string { return &s }
