package manufacturer

import "regexp"

// vendorAliases maps known spellings and brand variants to one canonical
// vendor id. Keys must be lowercase.
func vendorAliases() map[string]string {
	return map[string]string{
		"siemens":           Siemens,
		"siemens ag":        Siemens,
		"abb":               ABB,
		"asea brown boveri": ABB,
		"baldor":            ABB, // acquired brand, drives still in the field
		"fanuc":             Fanuc,
		"ge fanuc":          Fanuc,
		"allen-bradley":     AllenBradley,
		"allen bradley":     AllenBradley,
		"rockwell":          AllenBradley,
		"rockwell automation": AllenBradley,
		"ab":                AllenBradley,
		"mitsubishi":        Mitsubishi,
		"mitsubishi electric": Mitsubishi,
		"melco":             Mitsubishi,
		"schneider":         Schneider,
		"schneider electric": Schneider,
		"telemecanique":     Schneider,
		"square d":          Schneider,
		"danfoss":           Danfoss,
		"yaskawa":           Yaskawa,
		"yaskawa electric":  Yaskawa,
		"motoman":           Yaskawa,
		"sew":               SEW,
		"sew-eurodrive":     SEW,
		"sew eurodrive":     SEW,
	}
}

// vendorKeywords lists product-family, software, and protocol names unique
// to one vendor. Matched as substrings of the lowercased query, most
// specific first.
func vendorKeywords() []keywordRule {
	return []keywordRule{
		{"sinamics", Siemens},
		{"simatic", Siemens},
		{"simodrive", Siemens},
		{"micromaster", Siemens},
		{"tia portal", Siemens},
		{"step 7", Siemens},
		{"starter drive", Siemens},

		{"acs880", ABB},
		{"acs580", ABB},
		{"acs550", ABB},
		{"drivewindow", ABB},
		{"drive composer", ABB},

		{"roboguide", Fanuc},
		{"karel", Fanuc},
		{"a06b-", Fanuc},
		{"r-30ib", Fanuc},

		{"powerflex", AllenBradley},
		{"controllogix", AllenBradley},
		{"compactlogix", AllenBradley},
		{"micrologix", AllenBradley},
		{"rslogix", AllenBradley},
		{"studio 5000", AllenBradley},
		{"kinetix", AllenBradley},

		{"melsec", Mitsubishi},
		{"gx works", Mitsubishi},
		{"fr-d700", Mitsubishi},
		{"fr-e800", Mitsubishi},

		{"altivar", Schneider},
		{"modicon", Schneider},
		{"ecostruxure", Schneider},
		{"lexium", Schneider},

		{"vlt flux", Danfoss},
		{"vlt aqua", Danfoss},
		{"vlt automationdrive", Danfoss},

		{"sigma-7", Yaskawa},
		{"drivewizard", Yaskawa},
		{"ga700", Yaskawa},
		{"ga500", Yaskawa},

		{"movidrive", SEW},
		{"movitrac", SEW},
		{"movimot", SEW},
	}
}

// exclusiveCodePatterns lists fault-code formats structurally exclusive to a
// single vendor. A bare letter-prefix-plus-digits code (F0002, E21, A0501)
// is shared across vendors and intentionally not listed here.
func exclusiveCodePatterns() []codeRule {
	return []codeRule{
		{regexp.MustCompile(`\bsrvo-\d{3}\b`), Fanuc},   // Fanuc servo alarms
		{regexp.MustCompile(`\bmotn-\d{3}\b`), Fanuc},   // Fanuc motion alarms
		{regexp.MustCompile(`\bsyst-\d{3}\b`), Fanuc},   // Fanuc system alarms
		{regexp.MustCompile(`\ba\.\d{2}[0-9a-f]?\b`), Yaskawa}, // Yaskawa A.xx servo alarms
		{regexp.MustCompile(`\bsf\d{2}\s*/\s*f\d{3}\b`), SEW},  // SEW subfault notation
	}
}
