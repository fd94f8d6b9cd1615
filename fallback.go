package examprep

import (
	"fmt"
	"math/rand"
	"strings"
)

// FallbackBank holds curated, pre-validated question pools keyed by coarse
// subject. It is immutable after construction and safe for any number of
// concurrent readers; it performs no I/O and is the pipeline's guaranteed
// termination branch.
type FallbackBank struct {
	pools   map[string][]Question
	generic []Question
}

// NewFallbackBankFromPools builds a bank from caller-supplied pools. Keys
// are matched case-insensitively against the requested course.
func NewFallbackBankFromPools(pools map[string][]Question, generic []Question) *FallbackBank {
	normalized := make(map[string][]Question, len(pools))
	for k, v := range pools {
		normalized[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &FallbackBank{pools: normalized, generic: generic}
}

// Draw selects the pool for the course (or the generic pool when no exact
// match exists) and returns exactly n distinct questions via a uniform
// shuffle-then-take. Each returned question is a deep copy so the caller's
// shuffling never mutates the bank.
func (b *FallbackBank) Draw(course string, n int, rng *rand.Rand) ([]Question, error) {
	pool, ok := b.pools[strings.ToLower(strings.TrimSpace(course))]
	if !ok {
		pool = b.generic
	}
	if len(pool) < n {
		return nil, &PipelineError{
			Kind:  FailureConfiguration,
			Stage: "fallback",
			Err:   fmt.Errorf("fallback pool for %q holds %d questions, need %d", course, len(pool), n),
		}
	}

	idx := make([]int, len(pool))
	for i := range idx {
		idx[i] = i
	}
	swap := func(i, j int) { idx[i], idx[j] = idx[j], idx[i] }
	if rng != nil {
		rng.Shuffle(len(idx), swap)
	} else {
		rand.Shuffle(len(idx), swap)
	}

	out := make([]Question, n)
	for i := 0; i < n; i++ {
		q := pool[idx[i]]
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out, nil
}

// NewFallbackBank returns the built-in bank shipped with the service. Every
// entry already satisfies the question invariants: four distinct options
// with the correct answer stored by value.
func NewFallbackBank() *FallbackBank {
	return NewFallbackBankFromPools(map[string][]Question{
		"physics":   physicsPool,
		"maths":     mathsPool,
		"chemistry": chemistryPool,
	}, generalPool)
}

var physicsPool = []Question{
	{
		QuestionText:  "Which law of thermodynamics states that the entropy of an isolated system never decreases?",
		Options:       []string{"Zeroth Law", "First Law", "Second Law", "Third Law"},
		CorrectAnswer: "Second Law",
		Explanation:   "The Second Law says entropy of an isolated system increases or stays constant; it defines the arrow of time for thermodynamic processes.",
		Topic:         "Thermodynamics",
		Difficulty:    "Medium",
	},
	{
		QuestionText:  "The area under a velocity-time graph represents:",
		Options:       []string{"Acceleration", "Displacement", "Force", "Jerk"},
		CorrectAnswer: "Displacement",
		Explanation:   "Velocity integrated over time gives displacement, which is the area between the curve and the time axis.",
		Topic:         "Kinematics",
		Difficulty:    "Easy",
	},
	{
		QuestionText:  "In an isothermal expansion of an ideal gas, the internal energy:",
		Options:       []string{"Increases", "Decreases", "Remains constant", "Becomes zero"},
		CorrectAnswer: "Remains constant",
		Explanation:   "For an ideal gas internal energy depends only on temperature, which is constant in an isothermal process.",
		Topic:         "Thermodynamics",
		Difficulty:    "Medium",
	},
	{
		QuestionText:  "Which quantity is conserved in a perfectly inelastic collision?",
		Options:       []string{"Kinetic energy", "Momentum", "Velocity", "Mechanical energy"},
		CorrectAnswer: "Momentum",
		Explanation:   "Momentum is conserved in all collisions; kinetic energy is lost to deformation and heat in inelastic ones.",
		Topic:         "Mechanics",
		Difficulty:    "Medium",
	},
	{
		QuestionText:  "The SI unit of electric flux is:",
		Options:       []string{"Volt metre", "Newton per coulomb", "Weber", "Tesla"},
		CorrectAnswer: "Volt metre",
		Explanation:   "Electric flux is field times area, giving N·m²/C, which is equivalent to volt metre.",
		Topic:         "Electrostatics",
		Difficulty:    "Hard",
	},
	{
		QuestionText:  "A Carnot engine's efficiency depends only on:",
		Options:       []string{"The working substance", "The reservoir temperatures", "The engine's size", "The cycle duration"},
		CorrectAnswer: "The reservoir temperatures",
		Explanation:   "Carnot efficiency is 1 - Tc/Th, a function of the hot and cold reservoir temperatures alone.",
		Topic:         "Thermodynamics",
		Difficulty:    "Hard",
	},
}

var mathsPool = []Question{
	{
		QuestionText:  "What is the derivative of sin(x)?",
		Options:       []string{"cos(x)", "-cos(x)", "tan(x)", "-sin(x)"},
		CorrectAnswer: "cos(x)",
		Explanation:   "Differentiating sin(x) with respect to x gives cos(x).",
		Topic:         "Calculus",
		Difficulty:    "Easy",
	},
	{
		QuestionText:  "The integral of 1/x dx (for x > 0) is:",
		Options:       []string{"ln(x) + C", "1/x² + C", "x ln(x) + C", "e^x + C"},
		CorrectAnswer: "ln(x) + C",
		Explanation:   "The antiderivative of 1/x on the positive reals is the natural logarithm.",
		Topic:         "Integration",
		Difficulty:    "Easy",
	},
	{
		QuestionText:  "If the roots of x² - 5x + 6 = 0 are a and b, then a + b equals:",
		Options:       []string{"5", "6", "-5", "1"},
		CorrectAnswer: "5",
		Explanation:   "By Vieta's formulas the sum of roots is -(-5)/1 = 5.",
		Topic:         "Algebra",
		Difficulty:    "Easy",
	},
	{
		QuestionText:  "The number of ways to arrange the letters of the word EXAM is:",
		Options:       []string{"24", "12", "16", "20"},
		CorrectAnswer: "24",
		Explanation:   "Four distinct letters give 4! = 24 arrangements.",
		Topic:         "Combinatorics",
		Difficulty:    "Medium",
	},
	{
		QuestionText:  "lim (x→0) sin(x)/x equals:",
		Options:       []string{"1", "0", "Infinity", "Does not exist"},
		CorrectAnswer: "1",
		Explanation:   "This standard limit follows from the squeeze theorem.",
		Topic:         "Calculus",
		Difficulty:    "Medium",
	},
	{
		QuestionText:  "The rank of a 3×3 identity matrix is:",
		Options:       []string{"3", "1", "0", "9"},
		CorrectAnswer: "3",
		Explanation:   "The identity matrix has three linearly independent rows.",
		Topic:         "Linear Algebra",
		Difficulty:    "Medium",
	},
}

var chemistryPool = []Question{
	{
		QuestionText:  "Who is known as the father of modern chemistry?",
		Options:       []string{"Newton", "Einstein", "Lavoisier", "Dalton"},
		CorrectAnswer: "Lavoisier",
		Explanation:   "Antoine Lavoisier established the law of conservation of mass and systematic chemical nomenclature.",
		Topic:         "History of Chemistry",
		Difficulty:    "Easy",
	},
	{
		QuestionText:  "Which of the following is an SN1-favouring solvent?",
		Options:       []string{"Water", "Hexane", "Benzene", "Carbon tetrachloride"},
		CorrectAnswer: "Water",
		Explanation:   "Polar protic solvents stabilise the carbocation intermediate, favouring the SN1 pathway.",
		Topic:         "Organic Reactions",
		Difficulty:    "Hard",
	},
	{
		QuestionText:  "The hybridisation of carbon in ethyne (C₂H₂) is:",
		Options:       []string{"sp", "sp²", "sp³", "dsp²"},
		CorrectAnswer: "sp",
		Explanation:   "Each carbon in ethyne forms two sigma bonds and two pi bonds, requiring sp hybridisation.",
		Topic:         "Chemical Bonding",
		Difficulty:    "Medium",
	},
	{
		QuestionText:  "Which gas is evolved when dilute HCl reacts with zinc?",
		Options:       []string{"Hydrogen", "Chlorine", "Oxygen", "Carbon dioxide"},
		CorrectAnswer: "Hydrogen",
		Explanation:   "Zinc displaces hydrogen from hydrochloric acid, forming zinc chloride and hydrogen gas.",
		Topic:         "Acids and Bases",
		Difficulty:    "Easy",
	},
	{
		QuestionText:  "The oxidation state of manganese in KMnO₄ is:",
		Options:       []string{"+7", "+4", "+2", "+6"},
		CorrectAnswer: "+7",
		Explanation:   "With potassium at +1 and four oxygens at -2 each, manganese must be +7 for neutrality.",
		Topic:         "Redox",
		Difficulty:    "Medium",
	},
	{
		QuestionText:  "Which quantum number determines the shape of an orbital?",
		Options:       []string{"Principal", "Azimuthal", "Magnetic", "Spin"},
		CorrectAnswer: "Azimuthal",
		Explanation:   "The azimuthal (angular momentum) quantum number l fixes the orbital's shape.",
		Topic:         "Atomic Structure",
		Difficulty:    "Medium",
	},
}

var generalPool = []Question{
	{
		QuestionText:  "Which planet has the shortest day?",
		Options:       []string{"Jupiter", "Earth", "Mars", "Venus"},
		CorrectAnswer: "Jupiter",
		Explanation:   "Jupiter rotates once in just under ten hours, the fastest of the planets.",
		Topic:         "General Science",
		Difficulty:    "Easy",
	},
	{
		QuestionText:  "The binary number 1010 equals which decimal value?",
		Options:       []string{"10", "8", "12", "20"},
		CorrectAnswer: "10",
		Explanation:   "1010 in binary is 8 + 0 + 2 + 0 = 10.",
		Topic:         "Number Systems",
		Difficulty:    "Easy",
	},
	{
		QuestionText:  "Which blood cells are primarily responsible for immunity?",
		Options:       []string{"White blood cells", "Red blood cells", "Platelets", "Plasma cells only"},
		CorrectAnswer: "White blood cells",
		Explanation:   "Leukocytes detect and fight pathogens as part of the immune response.",
		Topic:         "Biology",
		Difficulty:    "Easy",
	},
	{
		QuestionText:  "The speed of light in vacuum is closest to:",
		Options:       []string{"3 × 10⁸ m/s", "3 × 10⁶ m/s", "3 × 10¹⁰ m/s", "3 × 10⁵ m/s"},
		CorrectAnswer: "3 × 10⁸ m/s",
		Explanation:   "Light travels at approximately 299,792,458 metres per second in vacuum.",
		Topic:         "Physics",
		Difficulty:    "Easy",
	},
	{
		QuestionText:  "Which data structure gives O(1) average lookup by key?",
		Options:       []string{"Hash table", "Linked list", "Binary tree", "Stack"},
		CorrectAnswer: "Hash table",
		Explanation:   "Hashing maps a key directly to a bucket, giving constant-time average lookups.",
		Topic:         "Computer Science",
		Difficulty:    "Medium",
	},
	{
		QuestionText:  "The chemical formula of common salt is:",
		Options:       []string{"NaCl", "KCl", "NaOH", "CaCl₂"},
		CorrectAnswer: "NaCl",
		Explanation:   "Table salt is sodium chloride.",
		Topic:         "Chemistry",
		Difficulty:    "Easy",
	},
}
