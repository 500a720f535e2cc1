package classification

// DefaultDeviceRules returns the built-in device table.
// Named series come first, then carrier model numbers, then bare series names
// that would otherwise shadow a carrier code (A36 inside SM-A366).
func DefaultDeviceRules() []DeviceRule {
	return []DeviceRule{
		// Named series
		{Name: "iPhone SE", Brand: "iPhone", Tier: TierNamed, Regex: `[いi]?phone\s*SE\s*\d?`},
		{Name: "iPhone", Brand: "iPhone", Tier: TierNamed, Regex: `[いi]?phone\s*\d{1,2}(?:\s*(?:Pro(?:\s*Max)?|Plus|mini)|e)?`},
		{Name: "Galaxy Z", Brand: "Galaxy", Tier: TierNamed, Regex: `Galaxy\s*Z\s*(?:Flip|Fold)\s*\d*`},
		{Name: "Galaxy", Brand: "Galaxy", Tier: TierNamed, Regex: `Galaxy\s*[A-Z]\d+(?:\s*(?:Ultra|Plus|\+|FE|Edge))?`},
		{Name: "Xperia", Brand: "Xperia", Tier: TierNamed, Regex: `Xperia\s*(?:\d+|[A-Z]+\s*\d+)(?:\s*(?:VI|IV|V|III|II))?`},
		{Name: "AQUOS", Brand: "AQUOS", Tier: TierNamed, Regex: `AQUOS\s*(?:sense|R|zero|wish|ゼロ|センス)\s*\d*(?:\s*(?:plus|\+|プラス|lite))?`},
		{Name: "Pixel", Brand: "Pixel", Tier: TierNamed, Regex: `(?:Google\s*)?Pixel\s*\d+(?:\s*(?:Pro(?:\s*XL)?|XL|Fold|a))?`},
		{Name: "OPPO", Brand: "OPPO", Tier: TierNamed, Regex: `OPPO\s*(?:Reno|Find\s*X|A)\s*\d+[A-Z]*(?:\s*(?:Pro|5G))?`},
		{Name: "Xiaomi", Brand: "Xiaomi", Tier: TierNamed, Regex: `\b(?:Redmi|Xiaomi|Mi)\s*(?:Note\s*)?\d+[A-Z]*(?:\s*(?:Pro|5G))?`},
		{Name: "arrows", Brand: "arrows", Tier: TierNamed, Regex: `arrows\s*(?:We|Be|NX|N|F)\s*\d*`},

		// Carrier model numbers
		{Name: "Galaxy docomo", Brand: "Galaxy", Tier: TierCarrier, Regex: `\bSC-\d+[A-Z]*`},
		{Name: "Galaxy au", Brand: "Galaxy", Tier: TierCarrier, Regex: `\bSC[GV]\d+`},
		{Name: "Galaxy global", Brand: "Galaxy", Tier: TierCarrier, Regex: `\bSM-[A-Z]\d+[A-Z]*`},
		{Name: "Xperia docomo", Brand: "Xperia", Tier: TierCarrier, Regex: `\bSO-\d+[A-Z]*`},
		{Name: "Xperia au", Brand: "Xperia", Tier: TierCarrier, Regex: `\bSO[GV]\d+`},
		{Name: "AQUOS docomo", Brand: "AQUOS", Tier: TierCarrier, Regex: `\bSH-\d+[A-Z]*`},
		{Name: "AQUOS au", Brand: "AQUOS", Tier: TierCarrier, Regex: `\bSH[GV]\d+`},
		{Name: "AQUOS SoftBank", Brand: "AQUOS", Tier: TierCarrier, Regex: `\bA\d{3}SH\b`},
		{Name: "arrows docomo", Brand: "arrows", Tier: TierCarrier, Regex: `\bF-\d+[A-Z]*`},

		// Bare series names
		{Name: "Galaxy A series", Brand: "Galaxy", Tier: TierSeries, Regex: `\bA\d{2}`, RejectNext: "0123456789SHsh"},
		{Name: "AQUOS wish", Brand: "AQUOS", Tier: TierSeries, Regex: `\bwish\s*\d+(?:\s*(?:plus|\+))?`},
		{Name: "AQUOS sense", Brand: "AQUOS", Tier: TierSeries, Regex: `\bsense\s*\d+(?:\s*(?:plus|\+|lite))?`},
		{Name: "AQUOS zero", Brand: "AQUOS", Tier: TierSeries, Regex: `\bzero\s*\d+`},
		{Name: "AQUOS R", Brand: "AQUOS", Tier: TierSeries, Regex: `\bR\d{1,2}(?:\s*Pro)?\b`},
		{Name: "arrows We", Brand: "arrows", Tier: TierSeries, Regex: `\bWe\s*\d+`},
		{Name: "arrows Be", Brand: "arrows", Tier: TierSeries, Regex: `\bBe\s*\d+`},
	}
}
