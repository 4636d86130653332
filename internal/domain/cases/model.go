package cases

import (
	"github.com/vitallab/vitallab/internal/normalize"
	"github.com/vitallab/vitallab/internal/platform/wire"
)

// Case is one surgical case. Integer columns hold -1 and timestamp columns
// hold 0 when the source value was missing or unparsable.
type Case struct {
	// Identity
	CaseID    int64 `json:"caseid"`
	SubjectID int64 `json:"subjectid"`

	// Case, anesthesia and operation timeline (epoch seconds)
	CaseStart int64 `json:"casestart"`
	CaseEnd   int64 `json:"caseend"`
	AneStart  int64 `json:"anestart"`
	AneEnd    int64 `json:"aneend"`
	OpStart   int64 `json:"opstart"`
	OpEnd     int64 `json:"opend"`
	Adm       int64 `json:"adm"`
	Dis       int64 `json:"dis"`

	// Outcome and demographics
	ICUDays     int64   `json:"icu_days"`
	DeathInHosp int64   `json:"death_inhosp"`
	Age         int64   `json:"age"`
	Sex         string  `json:"sex"`
	Height      float64 `json:"height"`
	Weight      float64 `json:"weight"`
	BMI         float64 `json:"bmi"`

	// Operation
	ASA        int64  `json:"asa"`
	EmOp       int64  `json:"emop"`
	Department string `json:"department"`
	OpType     string `json:"optype"`
	Dx         string `json:"dx"`
	OpName     string `json:"opname"`
	Approach   string `json:"approach"`
	Position   string `json:"position"`
	AneType    string `json:"ane_type"`

	// Preoperative history and labs
	PreopHTN   int64   `json:"preop_htn"`
	PreopDM    int64   `json:"preop_dm"`
	PreopECG   string  `json:"preop_ecg"`
	PreopPFT   string  `json:"preop_pft"`
	PreopHb    float64 `json:"preop_hb"`
	PreopPlt   int64   `json:"preop_plt"`
	PreopPT    float64 `json:"preop_pt"`
	PreopAPTT  float64 `json:"preop_aptt"`
	PreopNa    float64 `json:"preop_na"`
	PreopK     float64 `json:"preop_k"`
	PreopGluc  int64   `json:"preop_gluc"`
	PreopAlb   float64 `json:"preop_alb"`
	PreopAST   int64   `json:"preop_ast"`
	PreopALT   int64   `json:"preop_alt"`
	PreopBUN   int64   `json:"preop_bun"`
	PreopCr    float64 `json:"preop_cr"`
	PreopPH    float64 `json:"preop_ph"`
	PreopHCO3  float64 `json:"preop_hco3"`
	PreopBE    float64 `json:"preop_be"`
	PreopPaO2  int64   `json:"preop_pao2"`
	PreopPaCO2 int64   `json:"preop_paco2"`
	PreopSaO2  float64 `json:"preop_sao2"`

	// Airway and lines
	Cormack    string  `json:"cormack"`
	Airway     string  `json:"airway"`
	TubeSize   float64 `json:"tubesize"`
	DLTubeSize int64   `json:"dltubesize"`
	LMASize    float64 `json:"lmasize"`
	IV1        string  `json:"iv1"`
	IV2        string  `json:"iv2"`
	ALine1     string  `json:"aline1"`
	ALine2     string  `json:"aline2"`
	CLine1     string  `json:"cline1"`
	CLine2     string  `json:"cline2"`

	// Intraoperative fluids and drugs
	IntraopEBL         int64 `json:"intraop_ebl"`
	IntraopUO          int64 `json:"intraop_uo"`
	IntraopRBC         int64 `json:"intraop_rbc"`
	IntraopFFP         int64 `json:"intraop_ffp"`
	IntraopCrystalloid int64 `json:"intraop_crystalloid"`
	IntraopColloid     int64 `json:"intraop_colloid"`
	IntraopPPF         int64 `json:"intraop_ppf"`
	IntraopMDZ         int64 `json:"intraop_mdz"`
	IntraopFTN         int64 `json:"intraop_ftn"`
	IntraopRocu        int64 `json:"intraop_rocu"`
	IntraopVecu        int64 `json:"intraop_vecu"`
	IntraopEph         int64 `json:"intraop_eph"`
	IntraopPhe         int64 `json:"intraop_phe"`
	IntraopEpi         int64 `json:"intraop_epi"`
	IntraopCa          int64 `json:"intraop_ca"`
}

// fields returns pointers to every column in caseSchema order.
func (c *Case) fields() []any {
	return []any{
		&c.CaseID, &c.SubjectID, &c.CaseStart, &c.CaseEnd, &c.AneStart, &c.AneEnd, &c.OpStart, &c.OpEnd,
		&c.Adm, &c.Dis, &c.ICUDays, &c.DeathInHosp, &c.Age, &c.Sex, &c.Height, &c.Weight, &c.BMI, &c.ASA,
		&c.EmOp, &c.Department, &c.OpType, &c.Dx, &c.OpName, &c.Approach, &c.Position, &c.AneType,
		&c.PreopHTN, &c.PreopDM, &c.PreopECG, &c.PreopPFT, &c.PreopHb, &c.PreopPlt, &c.PreopPT,
		&c.PreopAPTT, &c.PreopNa, &c.PreopK, &c.PreopGluc, &c.PreopAlb, &c.PreopAST, &c.PreopALT,
		&c.PreopBUN, &c.PreopCr, &c.PreopPH, &c.PreopHCO3, &c.PreopBE, &c.PreopPaO2, &c.PreopPaCO2,
		&c.PreopSaO2, &c.Cormack, &c.Airway, &c.TubeSize, &c.DLTubeSize, &c.LMASize, &c.IV1, &c.IV2,
		&c.ALine1, &c.ALine2, &c.CLine1, &c.CLine2, &c.IntraopEBL, &c.IntraopUO, &c.IntraopRBC,
		&c.IntraopFFP, &c.IntraopCrystalloid, &c.IntraopColloid, &c.IntraopPPF, &c.IntraopMDZ,
		&c.IntraopFTN, &c.IntraopRocu, &c.IntraopVecu, &c.IntraopEph, &c.IntraopPhe, &c.IntraopEpi,
		&c.IntraopCa,
	}
}

// values returns the column values in caseSchema order.
func (c *Case) values() []any {
	ptrs := c.fields()
	out := make([]any, len(ptrs))
	for i, p := range ptrs {
		switch v := p.(type) {
		case *int64:
			out[i] = *v
		case *float64:
			out[i] = *v
		case *string:
			out[i] = *v
		}
	}
	return out
}

// fromRecord copies a normalized row into a Case.
func fromRecord(r normalize.Record) *Case {
	c := &Case{}
	for i, p := range c.fields() {
		name := caseSchema.Columns[i].Name
		switch v := p.(type) {
		case *int64:
			*v = r.Int(name)
		case *float64:
			*v = r.Float(name)
		case *string:
			*v = r.Str(name)
		}
	}
	return c
}

// Filter narrows case listings. Empty strings and nil pointers are unset.
type Filter struct {
	Department string
	OpType     string
	AgeMin     *int `validate:"omitempty,gte=0"`
	AgeMax     *int `validate:"omitempty,lte=150"`
	ASA        *int `validate:"omitempty,gte=1,lte=6"`
	EmOp       *int `validate:"omitempty,gte=0,lte=1"`
	Approach   string
}

// Match reports whether c satisfies every set field of f.
func (f Filter) Match(c *Case) bool {
	switch {
	case f.Department != "" && c.Department != f.Department:
		return false
	case f.OpType != "" && c.OpType != f.OpType:
		return false
	case f.Approach != "" && c.Approach != f.Approach:
		return false
	case f.AgeMin != nil && c.Age < int64(*f.AgeMin):
		return false
	case f.AgeMax != nil && c.Age > int64(*f.AgeMax):
		return false
	case f.ASA != nil && c.ASA != int64(*f.ASA):
		return false
	case f.EmOp != nil && c.EmOp != int64(*f.EmOp):
		return false
	}
	return true
}

// Summary is the case-level overview. Rates are percentages.
type Summary struct {
	TotalCases    int            `json:"total_cases"`
	Departments   map[string]int `json:"departments"`
	AvgAge        wire.Float     `json:"avg_age"`
	EmergencyRate wire.Float     `json:"emergency_rate"`
	MortalityRate wire.Float     `json:"mortality_rate"`
}

// DepartmentStats aggregates cases of one department.
type DepartmentStats struct {
	TotalCases     int        `json:"total_cases"`
	EmergencyCases int64      `json:"emergency_cases"`
	DeathCases     int64      `json:"death_cases"`
	AvgAge         wire.Float `json:"avg_age"`
	EmergencyRate  wire.Float `json:"emergency_rate"`
	MortalityRate  wire.Float `json:"mortality_rate"`
	AvgSurgeryTime wire.Float `json:"avg_surgery_time"`
}

// SurgeryStats aggregates cases of one operation type.
type SurgeryStats struct {
	TotalCases     int            `json:"total_cases"`
	Approaches     map[string]int `json:"approaches"`
	ICUCases       int            `json:"icu_cases"`
	AvgSurgeryTime wire.Float     `json:"avg_surgery_time"`
	ICURate        wire.Float     `json:"icu_rate"`
}
