package models

// LecturerIDPrefix is the fixed token used in lecturer handles; staff
// handles use the office code itself.
const LecturerIDPrefix = "LEC"

// Offices maps office codes to display names.
var Offices = map[string]string{
	"ARG": "Office of the Registrar",
	"FIN": "Finance, Bursar & Procurement Office",
	"HRM": "Human Resources (HR)",
	"ACA": "Academic Affairs / Provost Office",
	"ADM": "Admissions and Student Services Office",
	"ELE": "E-Learning and Digital Education Office",
	"LIB": "University Library Services",
}

// OfficePurpose holds the descriptive blurb shown on office dashboards.
var OfficePurpose = map[string]string{
	"ARG": "Manages student registration, enrollment records, transcripts, course allocation, and academic records management.",
	"FIN": "Manages tuition and fee payments, budgeting, payroll, expenditure tracking, financial reporting, and procurement of goods, services, and equipment.",
	"HRM": "Manages staff records, recruitment processes, performance tracking, leave management, training programs, and payroll summaries.",
	"ACA": "Oversees curriculum development, course offerings, faculty workload, academic quality assurance, and accreditation compliance.",
	"ADM": "Handles student applications, admission decisions, enrollment statistics, student support services, and offer letter management.",
	"ELE": "Manages Learning Management Systems (LMS), online courses, virtual classrooms, digital content development, and e-learning support services.",
	"LIB": "Manages physical and digital library resources, book lending, e-resources access, research support, and library user services.",
}

// Modules maps teachable module codes to titles.
var Modules = map[string]string{
	"CSC121": "C++ Programming",
	"CSC212": "Data Structures And Algorithm",
	"CSC213": "Computer Architecture",
	"CSC221": "Object-Oriented Programming With Java",
	"CSC222": "Computer Maintenance And Repair",
	"CSC231": "Operations Research",
	"CSC232": "Programming With Python",
	"CSC233": "Network Security And Cryptography",
	"CSC311": "Visual Programming",
	"CSC312": "Wireless Network And Mobile Computing",
	"CSC313": "Multimedia And Computer Graphics",
	"CSC321": "Advanced Networking",
	"CSC322": "Artificial Intelligence",
	"CSC323": "Server And Systems Administration",
	"CSC332": "Internet-Of-Things And Embedded System Practice",
	"CSC333": "Advanced Java Programming",
	"CSC421": "Mobile Application Development",
	"CSC422": "Distributed And Cloud Computing",
}

// IsOffice reports whether code is a recognized office.
func IsOffice(code string) bool {
	_, ok := Offices[code]
	return ok
}

// IsModule reports whether code is a recognized module.
func IsModule(code string) bool {
	_, ok := Modules[code]
	return ok
}
