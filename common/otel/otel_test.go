package otel_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel/attribute"

	"pacelink.app/relay/common/otel"
	"pacelink.app/relay/core/config"
)

var _ = Describe("Setup", func() {
	It("is disabled without an endpoint", func() {
		telemetry, err := otel.Setup(context.Background(), config.Config{})
		Expect(err).ToNot(HaveOccurred())
		Expect(telemetry).To(BeNil())
		Expect(telemetry.Shutdown(context.Background())).To(Succeed())
	})
})

var _ = Describe("Resource", func() {
	It("tags signals with the environment and installation", func() {
		res, err := otel.Resource(config.Config{
			Env:        "production",
			OTel:       config.OTelConfig{ServiceName: "pacelink-relay", ServiceVersion: "1.2.3"},
			Credential: config.CredentialConfig{InstallationID: "default"},
		})
		Expect(err).ToNot(HaveOccurred())

		attrs := res.Set()
		name, _ := attrs.Value(attribute.Key("service.name"))
		Expect(name.AsString()).To(Equal("pacelink-relay"))
		env, _ := attrs.Value(attribute.Key("deployment.environment"))
		Expect(env.AsString()).To(Equal("production"))
		inst, _ := attrs.Value(attribute.Key("strava.installation_id"))
		Expect(inst.AsString()).To(Equal("default"))
	})
})

var _ = Describe("SignalURL", func() {
	It("joins the signal path without doubling slashes", func() {
		Expect(otel.SignalURL("https://collector:4318", "traces")).To(Equal("https://collector:4318/v1/traces"))
		Expect(otel.SignalURL("https://collector:4318/", "logs")).To(Equal("https://collector:4318/v1/logs"))
	})
})

var _ = Describe("ParseHeaders", func() {
	It("parses comma separated pairs", func() {
		Expect(otel.ParseHeaders("x-api-key=abc, x-team = relay")).To(Equal(map[string]string{
			"x-api-key": "abc",
			"x-team":    "relay",
		}))
	})

	It("percent-decodes values", func() {
		Expect(otel.ParseHeaders("Authorization=Bearer%20xyz")).To(HaveKeyWithValue("Authorization", "Bearer xyz"))
	})

	It("skips malformed pairs", func() {
		Expect(otel.ParseHeaders("")).To(BeEmpty())
		Expect(otel.ParseHeaders("novalue,=orphan,k=v")).To(Equal(map[string]string{"k": "v"}))
	})
})
