package e2e_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"

	"github.com/vermilion00/libhmk/citest/testutil"
)

var _ = Describe("Project Commands", func() {
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

	Describe("setup", func() {
		It("should generate platformio.ini", func() {
			session, err := cli.Run(project.Path, "setup", "-k", "he60", "--log")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(0))

			content, err := project.ReadFile("platformio.ini")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(HavePrefix("[env:he60]\nboard = genericSTM32F446RE\n"))
			Expect(content).To(ContainSubstring("board_build.ldscript = linker/stm32f446re.ld\n"))
			Expect(content).To(ContainSubstring("\t-DLOG_ENABLED\n"))
			Expect(content).To(ContainSubstring("\thttps://github.com/eyalroz/printf.git#develop\n"))
			Expect(content).To(ContainSubstring("upload_protocol = dfu\n"))
		})

		It("should keep the shared flags when ini output is merged in", func() {
			session, err := cli.Run(project.Path, "setup", "-k", "he60")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(0))

			session, err = cli.Run(project.Path, "flags", "he60", "--format", "ini")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(0))

			content, err := project.ReadFile("platformio.ini")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(ContainSubstring("build_flags = ${env.build_flags}\n\t-Ihardware/stm32f446xx/\n"))
			Expect(content).To(ContainSubstring("build_src_filter = ${env.build_src_filter}\n"))
			Expect(content).To(ContainSubstring("\t-DBOARD_USB_FS\n"))
		})

		It("should reject a keyboard without a project descriptor", func() {
			session, err := cli.Run(project.Path, "setup", "-k", "he16")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(3))
			Expect(project.Exists("platformio.ini")).To(BeFalse())
		})

		It("should require a keyboard", func() {
			session, err := cli.Run(project.Path, "setup")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(2))
		})
	})

	Describe("validate", func() {
		It("should accept every keyboard of the project", func() {
			session, err := cli.Run(project.Path, "validate")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(0))
			Expect(session.Out).To(gbytes.Say("he16"))
			Expect(session.Out).To(gbytes.Say("he60"))
		})

		It("should report schema violations", func() {
			kb := strings.Replace(testutil.HE16Keyboard, `"vid": "0xAB50"`, `"vid": "AB50"`, 1)
			_, err := project.CreateFile("keyboards/he16/keyboard.json", kb)
			Expect(err).NotTo(HaveOccurred())

			session, err := cli.Run(project.Path, "validate")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(4))
			Expect(session.Out).To(gbytes.Say("✗ he16"))
			Expect(session.Out).To(gbytes.Say("✓ he60"))
		})

		It("should skip schema checks when validation is off", func() {
			kb := strings.Replace(testutil.HE16Keyboard, `"vid": "0xAB50"`, `"vid": "AB50"`, 1)
			_, err := project.CreateFile("keyboards/he16/keyboard.json", kb)
			Expect(err).NotTo(HaveOccurred())
			_, err = project.CreateFile("hmkconf.json", `{"validate": false}`)
			Expect(err).NotTo(HaveOccurred())

			session, err := cli.Run(project.Path, "validate", "he16")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(0))
		})
	})

	Describe("matrix", func() {
		It("should list keyboards with their platform packages", func() {
			session, err := cli.Run(project.Path, "matrix")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(0))

			var entries []map[string]string
			Expect(json.Unmarshal(session.Out.Contents(), &entries)).To(Succeed())
			Expect(entries).To(Equal([]map[string]string{
				{"keyboard": "he16", "packages": "https://github.com/ArteryTek/platform-arterytekat32"},
				{"keyboard": "he60", "packages": ""},
			}))
		})

		It("should print yaml", func() {
			session, err := cli.Run(project.Path, "matrix", "--format", "yaml")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(0))
			Expect(session.Out).To(gbytes.Say(`- keyboard: he16\n`))
		})
	})

	Describe("lut", func() {
		It("should print the distance table as a C array", func() {
			session, err := cli.Run(project.Path, "lut", "-a", "1", "-i", "4")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(0))
			Expect(string(session.Out.Contents())).To(Equal("{0, 110, 174, 220}\n"))
		})

		It("should require the curve constant", func() {
			session, err := cli.Run(project.Path, "lut")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(2))
		})
	})

	Describe("watch", func() {
		It("should rebuild when a descriptor changes", func() {
			session, err := cli.Start(project.Path, "watch", "he16", "--debounce", "50ms")
			Expect(err).NotTo(HaveOccurred())
			defer session.Kill()

			Eventually(session.Out, 10*time.Second).Should(gbytes.Say(`-DNUM_KEYS='4'`))

			// The watcher may need a moment to register its directories.
			kb := strings.Replace(testutil.HE16Keyboard, `"num_keys": 4`, `"num_keys": 5`, 1)
			Eventually(func() *gbytes.Buffer {
				Expect(os.WriteFile(filepath.Join(project.Path, "keyboards", "he16", "keyboard.json"), []byte(kb), 0644)).To(Succeed())
				return session.Out
			}, 10*time.Second, 500*time.Millisecond).Should(gbytes.Say(`-DNUM_KEYS='5'`))

			session.Signal(syscall.SIGTERM)
			Eventually(session, 10*time.Second).Should(gexec.Exit(0))
		})
	})

	Describe("debug", func() {
		It("should show the merged configuration", func() {
			_, err := project.CreateFile("hmkconf.jsonc", "{\n\t// CI settings\n\t\"usb_policy\": \"strict\"\n}")
			Expect(err).NotTo(HaveOccurred())

			session, err := cli.Run(project.Path, "debug", "config")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(0))

			var cfg map[string]any
			Expect(json.Unmarshal(session.Out.Contents(), &cfg)).To(Succeed())
			Expect(cfg).To(HaveKeyWithValue("usb_policy", "strict"))
			Expect(cfg).To(HaveKeyWithValue("output", "lines"))
		})

		It("should list the supported drivers", func() {
			session, err := cli.Run(project.Path, "debug", "drivers")
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(gexec.Exit(0))
			Expect(session.Out).To(gbytes.Say("at32f405xx"))
			Expect(session.Out).To(gbytes.Say("stm32f446xx"))
		})
	})
})
