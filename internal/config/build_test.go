package config_test

import (
	"math"
	"math/rand"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/m-ruiz/polsim/internal/config"
)

const twoSiteBuild = `
[global]
time = 0.0

[polariton site_1]
gamma = 1.0
U = 0.1
initial_real = 0.3
initial_imag = -0.1

[polariton site_2]
gamma = 1.0
U = 0.1
initial_real = -0.2
initial_imag = 0.7

[phonon ph_1]
omega = 20.0
gamma = 0.05

[reservoir res_1]
target = site_1
coupling = 1.0
tau = 600
power = 6.0
alpha = 4.0
n0 = 0.25

[coupling c_12]
from = site_1
to = site_2
phonon = ph_1
J = 0.0
g = 1.0
above = true

[coupling c_21]
from = site_2
to = site_1
phonon = ph_1
J = 0.0
g = 1.0
above = false

[pairing pr_1]
phonon = ph_1
sites = site_1, site_2
g = 1.0
`

func parse(text string) []*config.Section {
	sections, err := config.Parse(strings.NewReader(text))
	Expect(err).NotTo(HaveOccurred())
	return sections
}

var _ = Describe("BuildSections", func() {
	var rng *rand.Rand

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(1))
	})

	It("assembles entities in declaration order", func() {
		cav, names, err := config.BuildSections(parse(twoSiteBuild), rng)
		Expect(err).NotTo(HaveOccurred())

		Expect(cav.NumPolaritons()).To(Equal(2))
		Expect(cav.NumPhonons()).To(Equal(1))
		Expect(cav.NumReservoirs()).To(Equal(1))
		Expect(cav.Dim()).To(Equal(7))

		id, err := names.PolaritonID("site_2")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(1))

		x := cav.State()
		Expect(x[0]).To(Equal(0.3))
		Expect(x[1]).To(Equal(-0.1))
		Expect(x[6]).To(Equal(0.25))
	})

	It("stores the square root of the alpha entry", func() {
		cav, _, err := config.BuildSections(parse(twoSiteBuild), rng)
		Expect(err).NotTo(HaveOccurred())

		site, err := cav.Polariton(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(site.Reservoir).NotTo(BeNil())
		Expect(site.Reservoir.Alpha).To(BeNumerically("~", math.Sqrt(4.0), 1e-15))
	})

	It("fails when a coupling 'to' name does not resolve, naming it", func() {
		broken := strings.Replace(twoSiteBuild, "to = site_2", "to = site_3", 1)

		cav, _, err := config.BuildSections(parse(broken), rng)
		Expect(err).To(MatchError(ContainSubstring("site_3")))
		Expect(err).To(MatchError(ContainSubstring("'to'")))
		Expect(cav).To(BeNil())
	})

	It("fails when a reservoir target does not resolve", func() {
		broken := strings.Replace(twoSiteBuild, "target = site_1", "target = nowhere", 1)

		_, _, err := config.BuildSections(parse(broken), rng)
		Expect(err).To(MatchError(ContainSubstring("nowhere")))
	})

	It("fails when a pairing names an unknown site", func() {
		broken := strings.Replace(twoSiteBuild, "sites = site_1, site_2", "sites = site_1, ghost", 1)

		_, _, err := config.BuildSections(parse(broken), rng)
		Expect(err).To(MatchError(ContainSubstring("ghost")))
	})

	It("reports the section and key of a bad expression", func() {
		broken := strings.Replace(twoSiteBuild, "gamma = 1.0\nU = 0.1\ninitial_real = 0.3",
			"gamma = cauchy(1.0, 2.0)\nU = 0.1\ninitial_real = 0.3", 1)

		_, _, err := config.BuildSections(parse(broken), rng)
		Expect(err).To(MatchError(ContainSubstring("cauchy(1.0, 2.0)")))
		Expect(err).To(MatchError(ContainSubstring("polariton site_1")))
	})

	Context("with random initial conditions", func() {
		randomized := strings.Replace(twoSiteBuild,
			"initial_real = 0.3", "initial_real = uniform(-0.5, 0.5)", 1)

		It("draws from the supplied generator", func() {
			cavA, _, err := config.BuildSections(parse(randomized), rand.New(rand.NewSource(7)))
			Expect(err).NotTo(HaveOccurred())
			cavB, _, err := config.BuildSections(parse(randomized), rand.New(rand.NewSource(7)))
			Expect(err).NotTo(HaveOccurred())

			Expect(cavA.State()[0]).To(Equal(cavB.State()[0]))
			Expect(cavA.State()[0]).To(And(
				BeNumerically(">=", -0.5),
				BeNumerically("<=", 0.5),
			))
		})

		It("reseeds from a random_seed entry in [global]", func() {
			seeded := strings.Replace(randomized, "time = 0.0", "time = 0.0\nrandom_seed = 99", 1)

			cavA, _, err := config.BuildSections(parse(seeded), rand.New(rand.NewSource(1)))
			Expect(err).NotTo(HaveOccurred())
			cavB, _, err := config.BuildSections(parse(seeded), rand.New(rand.NewSource(2)))
			Expect(err).NotTo(HaveOccurred())

			Expect(cavA.State()[0]).To(Equal(cavB.State()[0]))
		})
	})

	It("starts the clock at the [global] time entry", func() {
		shifted := strings.Replace(twoSiteBuild, "time = 0.0", "time = 12.5", 1)

		cav, _, err := config.BuildSections(parse(shifted), rng)
		Expect(err).NotTo(HaveOccurred())
		Expect(cav.Time()).To(Equal(12.5))
	})
})
