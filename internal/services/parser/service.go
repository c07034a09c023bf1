// Package parser converts pasted BN product-update text into canonical
// 22-column records with per-field normalization and a derived patch
// payload. It never fails on malformed input: problems become warnings or
// structural errors so the operator always gets a preview.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/edumoraes/blingsync/internal/common"
	"github.com/edumoraes/blingsync/internal/interfaces"
	"github.com/edumoraes/blingsync/internal/models"
)

var (
	bomRe       = regexp.MustCompile(`^\x{FEFF}`)
	starBlockRe = regexp.MustCompile(`(?s)\*(.*?)\*`)
	edgeLeadRe  = regexp.MustCompile(`^[*"']+`)
	edgeTrailRe = regexp.MustCompile(`[*"']+$`)
	pipeSpaceRe = regexp.MustCompile(`[ \t]*\|[ \t]*`)
)

// Service implements the ParserService interface.
type Service struct {
	logger *common.Logger
}

// NewService creates a new BN parser service.
func NewService(logger *common.Logger) *Service {
	return &Service{logger: logger}
}

// Parse converts one pasted block into records. Each *...* block is an
// independent record; without star delimiters, non-blank lines are records.
func (s *Service) Parse(raw string) *models.ParseResult {
	result := &models.ParseResult{
		CleanedLines: []string{},
		Records:      []*models.BNRecord{},
		Errors:       []string{},
	}

	for idx, line := range splitRecords(raw) {
		record, structural := s.parseRecord(line, idx+1)
		if record == nil {
			continue
		}
		result.Errors = append(result.Errors, structural...)
		result.Records = append(result.Records, record)
		result.CleanedLines = append(result.CleanedLines, record.CleanedLine)
	}

	s.logger.Debug().
		Int("records", len(result.Records)).
		Int("errors", len(result.Errors)).
		Msg("BN parse completed")

	return result
}

// splitRecords divides the paste into raw records: between *...* when star
// delimiters exist, otherwise one record per non-blank line.
func splitRecords(raw string) []string {
	if raw == "" {
		return nil
	}
	raw = bomRe.ReplaceAllString(raw, "")

	if matches := starBlockRe.FindAllStringSubmatch(raw, -1); len(matches) > 0 {
		records := make([]string, 0, len(matches))
		for _, m := range matches {
			records = append(records, m[1])
		}
		return records
	}

	var records []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line != "" {
			records = append(records, line)
		}
	}
	return records
}

// normalizeLine unwraps one layer of surrounding quotes and asterisks,
// converts tabs to the field separator, and collapses whitespace adjacent
// to separators. Content inside fields keeps its internal spacing.
func normalizeLine(line string) string {
	t := strings.TrimSpace(bomRe.ReplaceAllString(line, ""))
	t = edgeLeadRe.ReplaceAllString(t, "")
	t = edgeTrailRe.ReplaceAllString(t, "")
	t = strings.ReplaceAll(t, "\t", "|")
	return pipeSpaceRe.ReplaceAllString(t, "|")
}

// parseRecord normalizes one raw record. The returned structural errors
// never abort parsing.
func (s *Service) parseRecord(raw string, n int) (*models.BNRecord, []string) {
	norm := normalizeLine(raw)
	if norm == "" {
		return nil, nil
	}

	var structural []string

	parts := strings.Split(norm, "|")
	if len(parts) < models.BNColumns {
		structural = append(structural, fmt.Sprintf("record %d: %d columns (<%d)", n, len(parts), models.BNColumns))
		for len(parts) < models.BNColumns {
			parts = append(parts, "")
		}
	}

	cols := make([]string, models.BNColumns)
	for i := 0; i < models.BNColumns; i++ {
		cols[i] = strings.TrimSpace(parts[i])
	}
	// Everything beyond the 22nd column is an image URL candidate, not a
	// parse error.
	extras := parts[models.BNColumns:]

	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	fields := models.ProductFields{}

	id := normalizeID(cols[0])
	if id == "" {
		structural = append(structural, fmt.Sprintf("record %d: identifier (column 1) is missing", n))
	}

	if v := cols[1]; v != "" {
		fields.Code = &v
	}
	if v := cols[2]; v != "" {
		fields.Name = &v
	}

	unit := cols[3]
	if unit != "" {
		fields.Unit = &unit
	} else {
		unit = "UN" // display default; not sent upstream unless present
	}

	if cols[4] != "" {
		ncm := digitsOnly(cols[4])
		if len(ncm) == 8 {
			fields.NCM = &ncm
		} else {
			warn("ncm ignored: %q is not an 8-digit classification code", cols[4])
		}
	}

	if cols[5] != "" {
		if v, ok := parseDecimal(cols[5]); ok {
			fields.Price = &v
		} else {
			warn("price ignored: %q is not a valid decimal", cols[5])
		}
	}

	if cols[6] != "" {
		if st, ok := parseStatus(cols[6]); ok {
			fields.Status = &st
		} else {
			warn("status ignored: %q is not recognized, no status field sent", cols[6])
		}
	}

	if cols[7] != "" {
		if v, ok := parseDecimal(cols[7]); ok {
			fields.CostPrice = &v
		} else {
			warn("cost price ignored: %q is not a valid decimal", cols[7])
		}
	}

	if v := cols[8]; v != "" {
		fields.SupplierCode = &v
	}
	if v := cols[9]; v != "" {
		fields.SupplierName = &v
		warn("supplier name ignored (not patched)")
	}

	s.parseWeights(cols[10], cols[11], &fields, warn)

	if cols[12] != "" {
		ean := digitsOnly(cols[12])
		if len(ean) == 13 {
			fields.EAN = &ean
		} else {
			warn("ean ignored: %q is not a 13-digit gtin", cols[12])
		}
	}

	fields.WidthCM = parseDimension(cols[13], "width", warn)
	fields.HeightCM = parseDimension(cols[14], "height", warn)
	fields.DepthCM = parseDimension(cols[15], "depth", warn)

	if v := cols[16]; v != "" {
		fields.Tags = &v
		warn("tags ignored (not patched)")
	}
	if v := cols[17]; v != "" {
		fields.ParentCode = &v
		warn("parent code ignored (not patched)")
	}

	if cols[18] != "" {
		brand := strings.ToUpper(cols[18])
		fields.Brand = &brand
	}

	if cols[19] != "" {
		if v, ok := parseIntStrict(cols[19]); ok {
			fields.Volumes = &v
		} else {
			zero := 0
			fields.Volumes = &zero
			warn("volumes unparseable: %q, defaulting to 0", cols[19])
		}
	}

	if cols[20] != "" {
		html := cols[20]
		fields.ShortDescription = &html
		text := truncate(stripHTML(html), ShortDescriptionLimit)
		fields.ShortDescriptionText = &text
	}

	images := gatherImages(cols[21], extras)

	record := &models.BNRecord{
		RawInput:     raw,
		ID:           id,
		Warnings:     warnings,
		PatchPayload: BuildPayload(fields),
		Images:       images,
	}
	record.CleanedLine = cleanedLine(id, unit, fields, images)

	return record, structural
}

// parseWeights normalizes net and gross weight, rounding up to one decimal.
// When gross normalizes to less than net the labels are assumed reversed
// and the two values are swapped with a single warning.
func (s *Service) parseWeights(netRaw, grossRaw string, fields *models.ProductFields, warn func(string, ...any)) {
	if netRaw != "" {
		if v, ok := parseDecimal(netRaw); ok {
			v = roundUpTenth(v)
			fields.NetWeight = &v
		} else {
			warn("net weight ignored: %q is not a valid decimal", netRaw)
		}
	}
	if grossRaw != "" {
		if v, ok := parseDecimal(grossRaw); ok {
			v = roundUpTenth(v)
			fields.GrossWeight = &v
		} else {
			warn("gross weight ignored: %q is not a valid decimal", grossRaw)
		}
	}

	if fields.NetWeight != nil && fields.GrossWeight != nil && *fields.GrossWeight < *fields.NetWeight {
		fields.NetWeight, fields.GrossWeight = fields.GrossWeight, fields.NetWeight
		warn("weight_swap: gross weight was below net weight, values swapped")
	}
}

// parseDimension parses one dimension column, clamping into the allowed
// range with a warning when out of bounds.
func parseDimension(raw, name string, warn func(string, ...any)) *float64 {
	if raw == "" {
		return nil
	}
	v, ok := parseDecimal(raw)
	if !ok {
		warn("%s ignored: %q is not a valid decimal", name, raw)
		return nil
	}
	clamped, wasClamped := clampDimension(v)
	if wasClamped {
		warn("%s clamped: %s cm is outside %g-%g cm", name, formatFloat(v), MinDimensionCM, MaxDimensionCM)
	}
	return &clamped
}

// gatherImages collects image URL candidates from column 22 and any extra
// columns, keeping only well-formed absolute http/https URLs, deduplicated
// in first-seen order.
func gatherImages(col22 string, extras []string) []string {
	var candidates []string
	push := func(chunk string) {
		for _, part := range strings.Split(chunk, ",") {
			for _, u := range strings.Split(part, "|") {
				if u = strings.TrimSpace(u); u != "" {
					candidates = append(candidates, u)
				}
			}
		}
	}
	if col22 != "" {
		push(col22)
	}
	for _, extra := range extras {
		if extra = strings.TrimSpace(extra); extra != "" {
			push(extra)
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	images := []string{}
	for _, u := range candidates {
		if !isHTTPURL(u) {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		images = append(images, u)
	}
	return images
}

// BuildPayload assembles the patch payload: a field is included only if it
// was present and valid after normalization and is not on the permanent
// block list (supplier name, tags, parent code). Absent fields are never
// defaulted or zeroed; this is a true partial update.
func BuildPayload(f models.ProductFields) map[string]any {
	payload := map[string]any{}

	putStr := func(key string, v *string) {
		if v != nil {
			payload[key] = *v
		}
	}
	putNum := func(key string, v *float64) {
		if v != nil {
			payload[key] = *v
		}
	}

	putStr("code", f.Code)
	putStr("name", f.Name)
	putStr("unit", f.Unit)
	putStr("ncm", f.NCM)
	putStr("ean", f.EAN)
	putStr("brand", f.Brand)
	putStr("supplier_code", f.SupplierCode)
	putStr("short_description", f.ShortDescriptionText)

	if f.Status != nil {
		payload["status"] = *f.Status
	}

	putNum("price", f.Price)
	putNum("cost_price", f.CostPrice)
	putNum("net_weight", f.NetWeight)
	putNum("gross_weight", f.GrossWeight)
	putNum("width_cm", f.WidthCM)
	putNum("height_cm", f.HeightCM)
	putNum("depth_cm", f.DepthCM)

	if f.Volumes != nil {
		payload["volumes"] = *f.Volumes
	}

	return payload
}

// cleanedLine renders the canonical 22-column preview line. Blocked fields
// render blank so the preview shows exactly what can be sent.
func cleanedLine(id, unit string, f models.ProductFields, images []string) string {
	str := func(v *string) string {
		if v == nil {
			return ""
		}
		return *v
	}
	num := func(v *float64) string {
		if v == nil {
			return ""
		}
		return formatFloat(*v)
	}

	status := ""
	if f.Status != nil {
		status = statusCode(*f.Status)
	}
	volumes := ""
	if f.Volumes != nil {
		volumes = fmt.Sprintf("%d", *f.Volumes)
	}

	cols := []string{
		id,
		str(f.Code),
		str(f.Name),
		unit,
		str(f.NCM),
		num(f.Price),
		status,
		num(f.CostPrice),
		str(f.SupplierCode),
		"", // supplier name: blocked
		num(f.NetWeight),
		num(f.GrossWeight),
		str(f.EAN),
		num(f.WidthCM),
		num(f.HeightCM),
		num(f.DepthCM),
		"", // tags: blocked
		"", // parent code: blocked
		str(f.Brand),
		volumes,
		str(f.ShortDescription),
		strings.Join(images, ","),
	}
	return strings.Join(cols, "|")
}

// Ensure Service implements ParserService
var _ interfaces.ParserService = (*Service)(nil)
