// internal/market/refdata/tables.go
package refdata

// Static India reference tables. Slices keep declaration order so every
// lookup that scans them is deterministic.

type cropBand struct {
	key  string
	base float64
	min  float64
	max  float64
	unit string
}

// Prices in INR per quintal, 2023-24 MSP plus typical market premium.
var cropBands = []cropBand{
	{"wheat", 2275, 1800, 3200, "quintal"},
	{"rice", 2183, 1600, 3500, "quintal"},
	{"paddy", 2183, 1600, 3500, "quintal"},
	{"corn", 1962, 1400, 2800, "quintal"},
	{"maize", 1962, 1400, 2800, "quintal"},
	{"soybean", 4600, 3800, 6200, "quintal"},
	{"cotton", 6620, 5500, 8500, "quintal"},
	{"sugarcane", 315, 280, 380, "quintal"},
	{"mustard", 5650, 4800, 7200, "quintal"},
	{"rapeseed", 5650, 4800, 7200, "quintal"},
	{"barley", 1735, 1400, 2400, "quintal"},
	{"groundnut", 6377, 5500, 8000, "quintal"},
	{"sunflower", 6760, 5800, 8500, "quintal"},
	{"turmeric", 10500, 7000, 18000, "quintal"},
	{"chilli", 12000, 8000, 25000, "quintal"},
	{"onion", 1800, 400, 8000, "quintal"},
	{"potato", 1200, 400, 4000, "quintal"},
	{"tomato", 2500, 300, 12000, "quintal"},
	{DefaultCropKey, 2500, 1800, 4000, "quintal"},
}

// Month 1 = January. Post-harvest months trade lower.
var seasonalCurves = map[string][12]float64{
	"wheat":        {1.18, 1.20, 1.15, 0.88, 0.82, 0.85, 0.90, 0.95, 1.00, 1.05, 1.10, 1.15},
	"rice":         {1.10, 1.08, 1.05, 1.02, 1.00, 0.98, 0.95, 0.90, 0.88, 0.90, 0.95, 1.05},
	"corn":         {1.05, 1.08, 1.10, 1.12, 1.10, 1.05, 0.90, 0.85, 0.88, 0.92, 0.98, 1.02},
	"onion":        {0.85, 0.80, 0.82, 0.88, 1.05, 1.20, 1.25, 1.30, 1.20, 1.10, 0.95, 0.88},
	"potato":       {0.88, 0.85, 0.82, 0.80, 0.90, 1.10, 1.20, 1.15, 1.08, 1.05, 0.98, 0.92},
	"tomato":       {1.20, 1.30, 1.25, 1.15, 0.90, 0.75, 0.70, 0.80, 1.00, 1.10, 1.20, 1.25},
	DefaultCropKey: {1.00, 1.02, 1.05, 1.03, 0.98, 0.95, 0.93, 0.95, 0.98, 1.00, 1.02, 1.04},
}

// Premium or discount against the national average.
var stateFactors = map[string]float64{
	"punjab": 1.05, "haryana": 1.03, "uttar pradesh": 0.97,
	"madhya pradesh": 0.95, "rajasthan": 0.96, "maharashtra": 1.08,
	"gujarat": 1.06, "karnataka": 1.04, "andhra pradesh": 1.02,
	"telangana": 1.03, "west bengal": 1.00, "bihar": 0.92,
	"odisha": 0.93, "tamil nadu": 1.05, "kerala": 1.10,
	"chhattisgarh": 0.91, "jharkhand": 0.90, "himachal pradesh": 1.05,
	"uttarakhand": 1.02, "assam": 0.95,
}

type stateMarkets struct {
	state   string
	markets []MarketLocation
}

func m(name string, lat, lon float64, tier int) MarketLocation {
	return MarketLocation{Name: name, Lat: lat, Lon: lon, Tier: tier}
}

var indiaMarkets = []stateMarkets{
	{"punjab", []MarketLocation{
		m("Ludhiana Grain Mandi", 30.9010, 75.8573, 1),
		m("Amritsar Mandi", 31.6340, 74.8723, 1),
		m("Patiala Mandi", 30.3398, 76.3869, 2),
		m("Jalandhar Mandi", 31.3260, 75.5762, 1),
		m("Ferozepur Mandi", 30.9236, 74.6214, 2),
		m("Batala Mandi", 31.8150, 75.2002, 2),
	}},
	{"haryana", []MarketLocation{
		m("Karnal Mandi", 29.6857, 76.9905, 1),
		m("Hisar Grain Market", 29.1492, 75.7217, 1),
		m("Ambala Mandi", 30.3752, 76.7821, 2),
		m("Rohtak Mandi", 28.8955, 76.6066, 2),
		m("Sirsa Mandi", 29.5343, 75.0293, 2),
		m("Panipat Mandi", 29.3909, 76.9635, 2),
	}},
	{"uttar pradesh", []MarketLocation{
		m("Agra Mandi", 27.1767, 78.0081, 1),
		m("Kanpur Agricultural Market", 26.4499, 80.3319, 1),
		m("Lucknow Mandi", 26.8467, 80.9462, 1),
		m("Varanasi Mandi", 25.3176, 82.9739, 2),
		m("Allahabad Mandi", 25.4358, 81.8463, 2),
		m("Meerut Mandi", 28.9845, 77.7064, 2),
		m("Bareilly Mandi", 28.3670, 79.4304, 2),
		m("Mathura Mandi", 27.4924, 77.6737, 2),
		m("Aligarh Mandi", 27.8974, 78.0880, 2),
	}},
	{"madhya pradesh", []MarketLocation{
		m("Indore New Mandi", 22.7196, 75.8577, 1),
		m("Bhopal Karond Mandi", 23.2599, 77.4126, 1),
		m("Gwalior Mandi", 26.2183, 78.1828, 2),
		m("Jabalpur Mandi", 23.1815, 79.9864, 2),
		m("Ujjain Mandi", 23.1828, 75.7772, 2),
		m("Dewas Mandi", 22.9676, 76.0534, 3),
		m("Sehore Mandi", 23.2040, 77.0868, 3),
	}},
	{"rajasthan", []MarketLocation{
		m("Jaipur Muhana Mandi", 26.8998, 75.8152, 1),
		m("Jodhpur Mandi", 26.2389, 73.0243, 1),
		m("Kota Mandi", 25.2138, 75.8648, 2),
		m("Bikaner Mandi", 28.0229, 73.3119, 2),
		m("Ajmer Mandi", 26.4499, 74.6399, 2),
		m("Udaipur Mandi", 24.5854, 73.7125, 2),
		m("Sri Ganganagar Mandi", 29.9038, 73.8772, 2),
	}},
	{"maharashtra", []MarketLocation{
		m("Mumbai APMC Vashi", 19.0760, 73.0194, 1),
		m("Pune Market Yard", 18.5204, 73.8567, 1),
		m("Nagpur Mandi", 21.1458, 79.0882, 1),
		m("Nashik Mandi", 20.0059, 73.7897, 2),
		m("Aurangabad Mandi", 19.8762, 75.3433, 2),
		m("Solapur Mandi", 17.6868, 75.9064, 2),
		m("Amravati Mandi", 20.9374, 77.7796, 2),
		m("Kolhapur Mandi", 16.7050, 74.2433, 2),
		m("Sangli Mandi", 16.8524, 74.5815, 2),
	}},
	{"gujarat", []MarketLocation{
		m("Ahmedabad APMC", 23.0225, 72.5714, 1),
		m("Surat Fruit Market", 21.1702, 72.8311, 1),
		m("Rajkot Mandi", 22.3039, 70.8022, 2),
		m("Vadodara Mandi", 22.3072, 73.1812, 2),
		m("Junagadh Mandi", 21.5222, 70.4579, 2),
		m("Bhavnagar Mandi", 21.7645, 72.1519, 2),
		m("Gondal Mandi", 21.9622, 70.8017, 3),
	}},
	{"karnataka", []MarketLocation{
		m("Bangalore APMC Yelahanka", 13.1007, 77.5963, 1),
		m("Hubli Mandi", 15.3647, 75.1240, 1),
		m("Mysore Mandi", 12.2958, 76.6394, 2),
		m("Belagavi Mandi", 15.8497, 74.4977, 2),
		m("Davangere Mandi", 14.4644, 75.9218, 2),
		m("Tumkur Mandi", 13.3379, 77.1173, 3),
	}},
	{"andhra pradesh", []MarketLocation{
		m("Guntur Mirchi Yard", 16.3067, 80.4365, 1),
		m("Vijayawada Mandi", 16.5062, 80.6480, 1),
		m("Visakhapatnam Mandi", 17.6868, 83.2185, 1),
		m("Kurnool Mandi", 15.8281, 78.0373, 2),
		m("Nellore Mandi", 14.4426, 79.9865, 2),
		m("Tirupati Mandi", 13.6288, 79.4192, 2),
	}},
	{"telangana", []MarketLocation{
		m("Hyderabad Gaddiannaram", 17.3462, 78.5614, 1),
		m("Warangal Mandi", 17.9784, 79.5941, 2),
		m("Nizamabad Mandi", 18.6726, 78.0941, 2),
		m("Karimnagar Mandi", 18.4386, 79.1288, 2),
	}},
	{"west bengal", []MarketLocation{
		m("Kolkata Posta Market", 22.5726, 88.3639, 1),
		m("Siliguri Mandi", 26.7271, 88.3953, 2),
		m("Howrah Mandi", 22.5958, 88.2636, 1),
		m("Burdwan Mandi", 23.2324, 87.8615, 2),
		m("Barasat Mandi", 22.7200, 88.4800, 2),
	}},
	{"bihar", []MarketLocation{
		m("Patna Mandi", 25.5941, 85.1376, 1),
		m("Gaya Mandi", 24.7914, 85.0002, 2),
		m("Muzaffarpur Mandi", 26.1209, 85.3647, 2),
		m("Bhagalpur Mandi", 25.2425, 87.0024, 2),
		m("Darbhanga Mandi", 26.1542, 85.8918, 2),
	}},
	{"odisha", []MarketLocation{
		m("Bhubaneswar Mandi", 20.2961, 85.8245, 1),
		m("Cuttack Mandi", 20.4625, 85.8828, 2),
		m("Berhampur Mandi", 19.3150, 84.7941, 2),
	}},
	{"tamil nadu", []MarketLocation{
		m("Chennai Koyambedu", 13.0699, 80.1940, 1),
		m("Coimbatore Mandi", 11.0168, 76.9558, 1),
		m("Madurai Mandi", 9.9252, 78.1198, 2),
		m("Salem Mandi", 11.6643, 78.1460, 2),
		m("Tiruchirappalli Mandi", 10.7905, 78.7047, 2),
		m("Tirunelveli Mandi", 8.7139, 77.7567, 2),
	}},
	{"kerala", []MarketLocation{
		m("Thiruvananthapuram Mandi", 8.5241, 76.9366, 1),
		m("Kochi Mandi", 9.9312, 76.2673, 1),
		m("Kozhikode Mandi", 11.2588, 75.7804, 2),
	}},
	{"chhattisgarh", []MarketLocation{
		m("Raipur Mandi", 21.2514, 81.6296, 1),
		m("Bilaspur Mandi", 22.0796, 82.1391, 2),
	}},
	{"jharkhand", []MarketLocation{
		m("Ranchi Mandi", 23.3441, 85.3096, 1),
		m("Jamshedpur Mandi", 22.8046, 86.2029, 2),
	}},
	{"himachal pradesh", []MarketLocation{
		m("Shimla Sabzi Mandi", 31.1048, 77.1734, 2),
		m("Kangra Mandi", 32.0998, 76.2691, 3),
		m("Solan Mandi", 30.9045, 77.0967, 3),
	}},
	{"uttarakhand", []MarketLocation{
		m("Dehradun Mandi", 30.3165, 78.0322, 2),
		m("Haridwar Mandi", 29.9457, 78.1642, 2),
		m("Haldwani Mandi", 29.2183, 79.5130, 2),
	}},
	{"assam", []MarketLocation{
		m("Guwahati Mandi", 26.1445, 91.7362, 1),
		m("Tezpur Mandi", 26.6338, 92.8004, 3),
	}},
}

type cityState struct {
	city  string
	state string
}

func cities(state string, names ...string) []cityState {
	out := make([]cityState, len(names))
	for i, n := range names {
		out[i] = cityState{city: n, state: state}
	}
	return out
}

var cityStateTable = concat(
	cities("punjab", "ludhiana", "amritsar", "patiala", "jalandhar", "bathinda", "ferozepur"),
	cities("haryana", "karnal", "hisar", "ambala", "rohtak", "gurugram", "faridabad", "panipat", "sonipat"),
	cities("uttar pradesh", "agra", "kanpur", "lucknow", "varanasi", "allahabad", "prayagraj",
		"meerut", "bareilly", "mathura", "aligarh", "moradabad", "saharanpur", "gorakhpur",
		"jhansi", "noida", "ghaziabad", "firozabad", "muzaffarnagar"),
	cities("madhya pradesh", "indore", "bhopal", "gwalior", "jabalpur", "ujjain", "dewas",
		"sehore", "ratlam", "satna"),
	cities("rajasthan", "jaipur", "jodhpur", "kota", "bikaner", "ajmer", "udaipur", "alwar",
		"bharatpur", "sikar", "sri ganganagar", "barmer"),
	cities("maharashtra", "mumbai", "pune", "nagpur", "nashik", "aurangabad", "solapur",
		"kolhapur", "sangli", "amravati"),
	cities("gujarat", "ahmedabad", "surat", "vadodara", "rajkot", "junagadh", "bhavnagar",
		"gandhinagar", "anand", "gondal"),
	cities("karnataka", "bangalore", "bengaluru", "hubli", "mysore", "belagavi", "davangere",
		"mangalore", "dharwad"),
	cities("andhra pradesh", "guntur", "vijayawada", "visakhapatnam", "vizag", "kurnool",
		"nellore", "tirupati"),
	cities("telangana", "hyderabad", "secunderabad", "warangal", "nizamabad", "karimnagar"),
	cities("west bengal", "kolkata", "howrah", "siliguri", "burdwan", "asansol", "durgapur"),
	cities("bihar", "patna", "gaya", "muzaffarpur", "bhagalpur", "darbhanga"),
	cities("odisha", "bhubaneswar", "cuttack", "puri", "berhampur", "rourkela"),
	cities("tamil nadu", "chennai", "coimbatore", "madurai", "salem", "tiruchirappalli",
		"tiruchy", "tirunelveli", "vellore"),
	cities("kerala", "thiruvananthapuram", "trivandrum", "kochi", "ernakulam", "kozhikode", "calicut"),
	cities("chhattisgarh", "raipur", "bilaspur"),
	cities("jharkhand", "ranchi", "jamshedpur", "dhanbad"),
	cities("himachal pradesh", "shimla", "kangra", "solan", "mandi"),
	cities("uttarakhand", "dehradun", "haridwar", "haldwani", "roorkee"),
	cities("assam", "guwahati", "tezpur", "dibrugarh"),
)

func concat(groups ...[]cityState) []cityState {
	var out []cityState
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

type cityCoord struct {
	city string
	lat  float64
	lon  float64
}

var cityCoordTable = []cityCoord{
	{"delhi", 28.6139, 77.2090}, {"new delhi", 28.6139, 77.2090},
	{"mumbai", 19.0760, 72.8777}, {"pune", 18.5204, 73.8567},
	{"bangalore", 12.9716, 77.5946}, {"bengaluru", 12.9716, 77.5946},
	{"hyderabad", 17.3850, 78.4867}, {"chennai", 13.0827, 80.2707},
	{"kolkata", 22.5726, 88.3639}, {"ahmedabad", 23.0225, 72.5714},
	{"surat", 21.1702, 72.8311}, {"jaipur", 26.9124, 75.7873},
	{"lucknow", 26.8467, 80.9462}, {"kanpur", 26.4499, 80.3319},
	{"nagpur", 21.1458, 79.0882}, {"bhopal", 23.2599, 77.4126},
	{"indore", 22.7196, 75.8577}, {"ludhiana", 30.9010, 75.8573},
	{"agra", 27.1767, 78.0081}, {"varanasi", 25.3176, 82.9739},
	{"patna", 25.5941, 85.1376}, {"amritsar", 31.6340, 74.8723},
	{"karnal", 29.6857, 76.9905}, {"hisar", 29.1492, 75.7217},
	{"jodhpur", 26.2389, 73.0243}, {"kota", 25.2138, 75.8648},
	{"guntur", 16.3067, 80.4365}, {"vijayawada", 16.5062, 80.6480},
	{"visakhapatnam", 17.6868, 83.2185}, {"vizag", 17.6868, 83.2185},
	{"coimbatore", 11.0168, 76.9558}, {"madurai", 9.9252, 78.1198},
	{"nashik", 20.0059, 73.7897}, {"vadodara", 22.3072, 73.1812},
	{"rajkot", 22.3039, 70.8022}, {"mysore", 12.2958, 76.6394},
	{"guwahati", 26.1445, 91.7362}, {"bhubaneswar", 20.2961, 85.8245},
	{"ranchi", 23.3441, 85.3096}, {"dehradun", 30.3165, 78.0322},
	{"shimla", 31.1048, 77.1734}, {"raipur", 21.2514, 81.6296},
	{"siliguri", 26.7271, 88.3953}, {"warangal", 17.9784, 79.5941},
	{"kochi", 9.9312, 76.2673}, {"thiruvananthapuram", 8.5241, 76.9366},
	{"trivandrum", 8.5241, 76.9366}, {"meerut", 28.9845, 77.7064},
	{"gwalior", 26.2183, 78.1828}, {"jabalpur", 23.1815, 79.9864},
	{"bareilly", 28.3670, 79.4304}, {"allahabad", 25.4358, 81.8463},
	{"prayagraj", 25.4358, 81.8463}, {"gorakhpur", 26.7606, 83.3732},
	{"howrah", 22.5958, 88.2636}, {"bikaner", 28.0229, 73.3119},
	{"ujjain", 23.1828, 75.7772}, {"haridwar", 29.9457, 78.1642},
	{"mathura", 27.4924, 77.6737}, {"hubli", 15.3647, 75.1240},
	{"belagavi", 15.8497, 74.4977}, {"davangere", 14.4644, 75.9218},
}
