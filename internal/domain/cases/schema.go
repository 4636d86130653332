package cases

import "github.com/vitallab/vitallab/internal/normalize"

// caseSchema lists every case column with its coercion rule. Case.fields
// must follow the same order.
var caseSchema = normalize.NewSchema("cases", []string{"caseid", "subjectid"},
	normalize.Integer("caseid"),
	normalize.Integer("subjectid"),
	normalize.Timestamp("casestart"),
	normalize.Timestamp("caseend"),
	normalize.Timestamp("anestart"),
	normalize.Timestamp("aneend"),
	normalize.Timestamp("opstart"),
	normalize.Timestamp("opend"),
	normalize.Timestamp("adm"),
	normalize.Timestamp("dis"),
	normalize.Integer("icu_days"),
	normalize.Integer("death_inhosp"),
	normalize.Integer("age"),
	normalize.Varchar("sex", 1),
	normalize.Numeric("height", 5, 1),
	normalize.Numeric("weight", 5, 1),
	normalize.Numeric("bmi", 4, 1),
	normalize.Integer("asa"),
	normalize.Integer("emop"),
	normalize.Varchar("department", 100),
	normalize.Varchar("optype", 100),
	normalize.Text("dx"),
	normalize.Text("opname"),
	normalize.Varchar("approach", 100),
	normalize.Varchar("position", 100),
	normalize.Varchar("ane_type", 100),
	normalize.Integer("preop_htn"),
	normalize.Integer("preop_dm"),
	normalize.Text("preop_ecg"),
	normalize.Text("preop_pft"),
	normalize.Numeric("preop_hb", 4, 1),
	normalize.Integer("preop_plt"),
	normalize.Numeric("preop_pt", 4, 1),
	normalize.Numeric("preop_aptt", 4, 1),
	normalize.Numeric("preop_na", 4, 1),
	normalize.Numeric("preop_k", 3, 1),
	normalize.Integer("preop_gluc"),
	normalize.Numeric("preop_alb", 3, 1),
	normalize.Integer("preop_ast"),
	normalize.Integer("preop_alt"),
	normalize.Integer("preop_bun"),
	normalize.Numeric("preop_cr", 4, 2),
	normalize.Numeric("preop_ph", 4, 2),
	normalize.Numeric("preop_hco3", 4, 1),
	normalize.Numeric("preop_be", 4, 1),
	normalize.Integer("preop_pao2"),
	normalize.Integer("preop_paco2"),
	normalize.Numeric("preop_sao2", 4, 1),
	normalize.Varchar("cormack", 10),
	normalize.Varchar("airway", 50),
	normalize.Numeric("tubesize", 3, 1),
	normalize.Integer("dltubesize"),
	normalize.Numeric("lmasize", 3, 1),
	normalize.Varchar("iv1", 100),
	normalize.Varchar("iv2", 100),
	normalize.Varchar("aline1", 100),
	normalize.Varchar("aline2", 100),
	normalize.Varchar("cline1", 100),
	normalize.Varchar("cline2", 100),
	normalize.Integer("intraop_ebl"),
	normalize.Integer("intraop_uo"),
	normalize.Integer("intraop_rbc"),
	normalize.Integer("intraop_ffp"),
	normalize.Integer("intraop_crystalloid"),
	normalize.Integer("intraop_colloid"),
	normalize.Integer("intraop_ppf"),
	normalize.Integer("intraop_mdz"),
	normalize.Integer("intraop_ftn"),
	normalize.Integer("intraop_rocu"),
	normalize.Integer("intraop_vecu"),
	normalize.Integer("intraop_eph"),
	normalize.Integer("intraop_phe"),
	normalize.Integer("intraop_epi"),
	normalize.Integer("intraop_ca"),
)
