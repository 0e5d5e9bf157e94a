package e2e_test

import (
	"encoding/json"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"

	"github.com/vermilion00/libhmk/citest/testutil"
)

var _ = Describe("Flag Synthesis", func() {
	var project *testutil.TempDir

	BeforeEach(func() {
		var err error
		project, err = testutil.NewProject()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if project != nil {
			project.Cleanup()
		}
	})

	Describe("flags", func() {
		It("should print one flag per line", func() {
			session, err := cli.Run(project.Path, "flags", "he60")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(0))

			lines := strings.Split(strings.TrimSpace(string(session.Out.Contents())), "\n")
			Expect(lines[0]).To(Equal("-Ihardware/stm32f446xx"))
			Expect(lines).To(ContainElements(
				"-DCFG_TUSB_MCU='OPT_MCU_STM32F4'",
				"-DBOARD_USB_FS",
				`-DUSB_PRODUCT_NAME='"HE60"'`,
				"-DMATRIX_INVERT_ADC_VALUES",
				"-DADC_MUX_SELECT_PORTS='{GPIOC, GPIOC}'",
				"-DADC_MUX_SELECT_PINS='{GPIO_PIN_13, GPIO_PIN_14}'",
				"-DADC_MUX_INPUT_MATRIX='{{4, 15}, {3, 14}, {2, 13}, {0, 16}}'",
				"-DACTUATION_POINT='128'",
			))
		})

		It("should use the vendor pin dialect of the driver", func() {
			session, err := cli.Run(project.Path, "flags", "he16")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(0))
			Expect(session.Out).To(gbytes.Say(`-DBOARD_USB_HS\n`))
			Expect(string(session.Out.Contents())).To(ContainSubstring("-DADC_RAW_INPUT_VECTOR='{0, 1, 2, 3}'"))
			Expect(string(session.Out.Contents())).NotTo(ContainSubstring("ADC_NUM_MUX_INPUTS"))
		})

		It("should print the source filter on request", func() {
			session, err := cli.Run(project.Path, "flags", "he16", "--src-filter")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(0))
			Expect(string(session.Out.Contents())).To(Equal("-<hardware/>\n+<hardware/at32f405xx/>\n"))
		})

		It("should print a json document", func() {
			session, err := cli.Run(project.Path, "flags", "he16", "--format", "json")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(0))

			var doc struct {
				Keyboard       string   `json:"keyboard"`
				BuildFlags     []string `json:"build_flags"`
				BuildSrcFilter []string `json:"build_src_filter"`
			}
			Expect(json.Unmarshal(session.Out.Contents(), &doc)).To(Succeed())
			Expect(doc.Keyboard).To(Equal("he16"))
			Expect(doc.BuildFlags).To(ContainElement("-DNUM_KEYS='4'"))
			Expect(doc.BuildSrcFilter).To(Equal([]string{"-<hardware/>", "+<hardware/at32f405xx/>"}))
		})

		It("should merge flags into an ini file", func() {
			_, err := project.CreateFile("platformio.ini", "[platformio]\ndefault_envs = he16\n")
			Expect(err).NotTo(HaveOccurred())

			session, err := cli.Run(project.Path, "flags", "he16", "--format", "ini")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(0))
			Expect(session.Out.Contents()).To(BeEmpty())

			content, err := project.ReadFile("platformio.ini")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(ContainSubstring("[platformio]\ndefault_envs = he16\n"))
			Expect(content).To(ContainSubstring("[env:he16]\nbuild_flags = -Ihardware/at32f405xx\n"))
		})

		It("should be deterministic", func() {
			first, err := cli.Run(project.Path, "flags", "he60")
			Expect(err).NotTo(HaveOccurred())
			second, err := cli.Run(project.Path, "flags", "he60")
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Out.Contents()).To(Equal(second.Out.Contents()))
		})
	})

	Describe("errors", func() {
		It("should exit 3 for an unknown keyboard", func() {
			session, err := cli.Run(project.Path, "flags", "nope")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(3))
			Expect(session.Out.Contents()).To(BeEmpty())
			Expect(session.Err).To(gbytes.Say(`keyboard "nope" not found`))
		})

		It("should exit 4 for a malformed descriptor", func() {
			_, err := project.CreateFile("keyboards/he16/keyboard.json", `{"name": `)
			Expect(err).NotTo(HaveOccurred())

			session, err := cli.Run(project.Path, "flags", "he16")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(4))
			Expect(session.Out.Contents()).To(BeEmpty())
		})

		It("should exit 4 for an unknown port under the strict policy", func() {
			kb := strings.Replace(testutil.HE16Keyboard, `"port": "hs"`, `"port": "high"`, 1)
			_, err := project.CreateFile("keyboards/he16/keyboard.json", kb)
			Expect(err).NotTo(HaveOccurred())

			session, err := cli.Run(project.Path, "flags", "he16")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(0))
			Expect(session.Out).To(gbytes.Say(`-DBOARD_USB_HS\n`))

			session, err = cli.Run(project.Path, "flags", "he16", "--usb-policy", "strict")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(4))
			Expect(session.Out.Contents()).To(BeEmpty())
		})

		It("should exit 5 for a mux on an unsupported driver", func() {
			kb := strings.Replace(testutil.HE60Keyboard, `"driver": "stm32f446xx"`, `"driver": "rp2040"`, 1)
			_, err := project.CreateFile("keyboards/he60/keyboard.json", kb)
			Expect(err).NotTo(HaveOccurred())
			_, err = project.CreateFile("hardware/rp2040/info.json", `{"tinyusb": {"mcu": "rp2040"}}`)
			Expect(err).NotTo(HaveOccurred())

			session, err := cli.Run(project.Path, "flags", "he60")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(5))
			Expect(session.Err).To(gbytes.Say("unsupported driver: rp2040"))
		})

		It("should exit 2 for a usage error", func() {
			session, err := cli.Run(project.Path, "flags")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(2))

			session, err = cli.Run(project.Path, "flags", "he16", "--format", "toml")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(2))
		})
	})
})
