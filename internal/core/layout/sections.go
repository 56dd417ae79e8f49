package layout

import (
	"strings"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
	"github.com/jaehyunkim/docuvision/internal/core/geometry"
)

const (
	// sectionGapPx is the vertical gap beyond which consecutive blocks start
	// a new section.
	sectionGapPx = 45.0

	// alignmentThreshold is the minimum alignment score for two consecutive
	// blocks to stay in the same section. Alignment compares left edges,
	// right edges and centers; the best of the three wins.
	alignmentThreshold = 0.8

	headerBandRatio = 0.15
	footerBandRatio = 0.85
)

// GroupIntoSections partitions blocks into vertically-clustered sections.
// Every block lands in exactly one section; blocks keep their ids. Section
// ids are 1-based in top-to-bottom order. pageHeight positions the header
// and footer bands; pass 0 when unknown and every section classifies by
// content only.
func GroupIntoSections(blocks []domain.Block, pageHeight float64) []domain.Section {
	if len(blocks) == 0 {
		return nil
	}
	ordered := make([]domain.Block, len(blocks))
	for i, b := range blocks {
		ordered[i] = b.Clone()
	}
	sortReadingOrder(ordered)

	var groups [][]domain.Block
	current := []domain.Block{ordered[0]}
	for _, b := range ordered[1:] {
		prev := current[len(current)-1]
		gap := geometry.VerticalGap(prev.Box, b.Box)
		if gap > sectionGapPx || alignmentScore(prev.Box, b.Box) < alignmentThreshold {
			groups = append(groups, current)
			current = []domain.Block{b}
			continue
		}
		current = append(current, b)
	}
	groups = append(groups, current)

	sections := make([]domain.Section, 0, len(groups))
	for i, g := range groups {
		sections = append(sections, buildSection(i+1, g, pageHeight))
	}
	return sections
}

// alignmentScore is 1 minus the smallest of the left, right and center edge
// differences, normalized by the wider box. 1.0 means perfectly aligned on
// at least one edge; degenerate widths score 0.
func alignmentScore(a, b domain.BoundingBox) float64 {
	maxWidth := a.Width
	if b.Width > maxWidth {
		maxWidth = b.Width
	}
	if maxWidth <= 0 {
		return 0
	}
	leftDiff := abs(a.XMin - b.XMin)
	rightDiff := abs(a.XMax - b.XMax)
	centerDiff := geometry.HorizontalCenterDistance(a, b)
	best := leftDiff
	if rightDiff < best {
		best = rightDiff
	}
	if centerDiff < best {
		best = centerDiff
	}
	score := 1 - best/maxWidth
	if score < 0 {
		return 0
	}
	return score
}

func buildSection(id int, blocks []domain.Block, pageHeight float64) domain.Section {
	boxes := make([]domain.BoundingBox, len(blocks))
	texts := make([]string, 0, len(blocks))
	for i, b := range blocks {
		boxes[i] = b.Box
		if b.Text != "" {
			texts = append(texts, b.Text)
		}
	}
	box, _ := geometry.UnionBox(boxes)
	return domain.Section{
		SectionID:     id,
		Type:          classifySection(blocks, box, pageHeight),
		Blocks:        blocks,
		Box:           box,
		Text:          strings.Join(texts, " "),
		TotalBlocks:   len(blocks),
		AvgConfidence: domain.MeanConfidence(blocks),
	}
}

// classifySection decides the section type. Content shape wins over page
// position: the header and footer bands only claim short runs, so body
// text near a page edge stays body.
func classifySection(blocks []domain.Block, box domain.BoundingBox, pageHeight float64) domain.SectionType {
	if looksLikeTable(blocks) {
		return domain.SectionTable
	}
	if looksLikeList(blocks) {
		return domain.SectionList
	}
	if pageHeight > 0 && looksLikeShortRun(blocks) {
		center := (box.YMin + box.YMax) / 2 / pageHeight
		if center < headerBandRatio {
			if looksLikeTitle(blocks) {
				return domain.SectionTitle
			}
			return domain.SectionHeader
		}
		if center > footerBandRatio {
			return domain.SectionFooter
		}
	}
	switch {
	case looksLikeTitle(blocks):
		return domain.SectionTitle
	case len(blocks) > 0:
		return domain.SectionBody
	}
	return domain.SectionOther
}

// looksLikeShortRun limits the header and footer bands to at most two
// blocks and a dozen words.
func looksLikeShortRun(blocks []domain.Block) bool {
	if len(blocks) > 2 {
		return false
	}
	words := 0
	for _, b := range blocks {
		words += len(strings.Fields(b.Text))
	}
	return words <= 12
}

// looksLikeTitle matches a single short block: at most ten words and no
// sentence-ending punctuation.
func looksLikeTitle(blocks []domain.Block) bool {
	if len(blocks) != 1 {
		return false
	}
	text := strings.TrimSpace(blocks[0].Text)
	if text == "" || strings.HasSuffix(text, ".") {
		return false
	}
	return len(strings.Fields(text)) <= 10
}

// looksLikeTable needs at least three blocks sharing a row, detected via
// pairwise vertical overlap.
func looksLikeTable(blocks []domain.Block) bool {
	if len(blocks) < 3 {
		return false
	}
	for i := range blocks {
		row := 1
		for j := range blocks {
			if i != j && geometry.OverlapsVertically(blocks[i].Box, blocks[j].Box) {
				row++
			}
		}
		if row >= 3 {
			return true
		}
	}
	return false
}

var listMarkers = []string{"-", "*", "•", "·", "▪", "●"}

func looksLikeList(blocks []domain.Block) bool {
	if len(blocks) < 2 {
		return false
	}
	marked := 0
	for _, b := range blocks {
		text := strings.TrimSpace(b.Text)
		for _, m := range listMarkers {
			if strings.HasPrefix(text, m) {
				marked++
				break
			}
		}
		if marked == 0 && len(text) > 2 && text[1] == '.' && text[0] >= '0' && text[0] <= '9' {
			marked++
		}
	}
	return marked*2 >= len(blocks)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
