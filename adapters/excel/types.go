package excel

// RawRowData represents a row of raw spreadsheet data as header -> cell text
type RawRowData map[string]string

// SheetData represents a whole sheet: headers plus data rows
type SheetData struct {
	Headers []string     // Column headers, trimmed and lower-cased
	Rows    []RawRowData // Data rows
}

// Column names recognised in batch files. Aliases map onto the canonical name.
const (
	ColName       = "name"
	ColR          = "r"
	ColK          = "k"
	ColN1         = "n1"
	ColN2         = "n2"
	ColEffectSize = "effect_size"
	ColVariance   = "variance"
	ColM          = "m"
	ColLevel      = "level"
)

var headerAliases = map[string]string{
	"comparison":  ColName,
	"repetitions": ColR,
	"folds":       ColK,
	"train_size":  ColN1,
	"test_size":   ColN2,
	"effect":      ColEffectSize,
	"effect.size": ColEffectSize,
	"var":         ColVariance,
	"intervals":   ColM,
	"alpha":       ColLevel,
}

// requiredColumns must all be present in a batch file header
var requiredColumns = []string{ColR, ColK, ColN1, ColN2, ColEffectSize, ColVariance}
