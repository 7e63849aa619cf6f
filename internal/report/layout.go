package report

// Column is one table column; Width is in millimetres.
type Column struct {
	Header string
	Width  float64
}

// Section is a titled table of rows.
type Section struct {
	Title   string
	Columns []Column
	Rows    [][]string
	// Empty is printed instead of rows when the section has none
	Empty string
}

// Geometry fixes the vertical measures used for pagination, in millimetres.
type Geometry struct {
	PageHeight    float64
	TopMargin     float64
	BottomMargin  float64
	HeadingHeight float64
	TitleHeight   float64
	HeaderHeight  float64
	RowHeight     float64
	SectionGap    float64
}

// A4 is the portrait A4 geometry the service renders with.
var A4 = Geometry{
	PageHeight:    297,
	TopMargin:     15,
	BottomMargin:  20,
	HeadingHeight: 18,
	TitleHeight:   9,
	HeaderHeight:  7,
	RowHeight:     6,
	SectionGap:    6,
}

// BlockKind is what a placed block draws.
type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockTitle
	BlockHeader
	BlockRow
	BlockEmpty
)

// Block is one element placed on a page at a fixed Y.
type Block struct {
	Kind    BlockKind
	Section int
	Row     int
	Y       float64
	// Continued marks a header repeated at the top of a new page
	Continued bool
}

// Page is the ordered list of blocks on one page.
type Page struct {
	Number int
	Blocks []Block
}

// Paginate places sections onto pages. Every row has the same height, a
// section title never ends a page without at least one row (or its empty
// line) below it, and a section that overflows continues on the next page
// under a repeated column header.
func Paginate(sections []Section, g Geometry) []Page {
	bottom := g.PageHeight - g.BottomMargin

	pages := []Page{{Number: 1}}
	cur := &pages[0]
	y := g.TopMargin

	place := func(b Block, h float64) {
		b.Y = y
		cur.Blocks = append(cur.Blocks, b)
		y += h
	}
	newPage := func() {
		pages = append(pages, Page{Number: len(pages) + 1})
		cur = &pages[len(pages)-1]
		y = g.TopMargin
	}

	place(Block{Kind: BlockHeading, Section: -1, Row: -1}, g.HeadingHeight)

	for si, s := range sections {
		// Title + header + first line must fit together.
		lead := g.TitleHeight + g.HeaderHeight + g.RowHeight
		if y+lead > bottom && len(cur.Blocks) > 0 {
			newPage()
		}

		place(Block{Kind: BlockTitle, Section: si, Row: -1}, g.TitleHeight)

		if len(s.Rows) == 0 {
			place(Block{Kind: BlockEmpty, Section: si, Row: -1}, g.RowHeight)
		} else {
			place(Block{Kind: BlockHeader, Section: si, Row: -1}, g.HeaderHeight)
			for ri := range s.Rows {
				if y+g.RowHeight > bottom {
					newPage()
					place(Block{Kind: BlockHeader, Section: si, Row: -1, Continued: true}, g.HeaderHeight)
				}
				place(Block{Kind: BlockRow, Section: si, Row: ri}, g.RowHeight)
			}
		}

		y += g.SectionGap
	}

	return pages
}
