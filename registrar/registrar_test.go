package registrar_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dskm-project/dskm/config"
	. "github.com/dskm-project/dskm/registrar"
)

var _ = Describe("Directory", func() {
	var cfg *config.Config

	BeforeEach(func() {
		var err error

		cfg, err = config.DefaultConfig()
		Expect(err).Should(Succeed())

		cfg.Registrars = map[string]config.Registrar{
			"ripe":  {Type: config.RegistrarTypeMail, Recipients: []string{"lir@example.com"}},
			"joker": {Type: config.RegistrarTypeDmapi, URL: "https://dmapi.example.com"},
		}
	})

	It("should provide the built-in and all configured registrars", func() {
		d, err := NewDirectory(cfg, &recordingSender{})
		Expect(err).Should(Succeed())

		for _, name := range []string{config.RegistrarLocal, config.RegistrarByHand, "joker", "ripe"} {
			r, err := d.Get(name)
			Expect(err).Should(Succeed())
			Expect(r.Name()).Should(Equal(name))
		}

		Expect(d.Get(config.RegistrarLocal)).Should(BeAssignableToTypeOf(&Local{}))
		Expect(d.Get("joker")).Should(BeAssignableToTypeOf(&DMAPI{}))
		Expect(d.Get("ripe")).Should(BeAssignableToTypeOf(&ByHand{}))
	})

	It("should list the external registrars by name", func() {
		d, err := NewDirectory(cfg, &recordingSender{})
		Expect(err).Should(Succeed())

		names := []string{}
		for _, r := range d.External() {
			names = append(names, r.Name())
		}

		Expect(names).Should(Equal([]string{"joker", "ripe"}))
	})

	It("should fail for unknown registrars", func() {
		d, err := NewDirectory(cfg, &recordingSender{})
		Expect(err).Should(Succeed())

		_, err = d.Get("unknown")
		Expect(err).Should(MatchError(ErrUnknownRegistrar))
	})

	It("should refuse invalid urls", func() {
		cfg.Registrars["joker"] = config.Registrar{Type: config.RegistrarTypeDmapi, URL: "://broken"}

		_, err := NewDirectory(cfg, &recordingSender{})
		Expect(err).Should(HaveOccurred())
	})
})
