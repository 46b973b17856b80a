package lexicon

// Built-in alias tables. Terms are pre-normalized (lower case, no punctuation).
// These cover the high-frequency synonyms for each deployment domain; larger
// vocabularies come in through the config overlay tables.

var healthcareAliases = []entry{
	{"pneumonia", "pneumonia"},
	{"cap", "pneumonia"}, // community-acquired pneumonia
	{"mi", "myocardial_infarction"},
	{"heart", "myocardial_infarction"},
	{"infarction", "myocardial_infarction"},
	{"htn", "hypertension"},
	{"hypertension", "hypertension"},
	{"dm", "diabetes_mellitus"},
	{"diabetes", "diabetes_mellitus"},
	{"t2dm", "diabetes_mellitus"},
	{"copd", "copd"},
	{"emphysema", "copd"},
	{"uti", "urinary_tract_infection"},
	{"cystitis", "urinary_tract_infection"},
	{"peds", "pediatric"},
	{"pediatric", "pediatric"},
	{"paediatric", "pediatric"},
	{"abx", "antibiotic"},
	{"antibiotic", "antibiotic"},
	{"antibiotics", "antibiotic"},
	{"dosing", "dosage"},
	{"dose", "dosage"},
	{"dosage", "dosage"},
}

var financeAliases = []entry{
	{"kyc", "know_your_customer"},
	{"aml", "anti_money_laundering"},
	{"sar", "suspicious_activity_report"},
	{"gdpr", "data_protection"},
	{"ccpa", "data_protection"},
	{"sox", "sarbanes_oxley"},
	{"fx", "foreign_exchange"},
	{"forex", "foreign_exchange"},
	{"repo", "repurchase_agreement"},
	{"ebitda", "earnings"},
	{"earnings", "earnings"},
	{"mtm", "mark_to_market"},
	{"var", "value_at_risk"},
	{"ltv", "loan_to_value"},
	{"apr", "interest_rate"},
	{"interest", "interest_rate"},
}
