package service_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pacelink.app/relay/internal/service"
)

var _ = Describe("VerifySubscription", func() {
	It("echoes the challenge for a matching subscribe request", func() {
		res := service.VerifySubscription("subscribe", "secret", "abc123", "secret")
		Expect(res.OK).To(BeTrue())
		Expect(res.Challenge).To(Equal("abc123"))
	})

	DescribeTable("rejects",
		func(mode, token, challenge, expected string) {
			res := service.VerifySubscription(mode, token, challenge, expected)
			Expect(res.OK).To(BeFalse())
			Expect(res.Challenge).To(BeEmpty())
		},
		Entry("a wrong token", "subscribe", "guess", "abc123", "secret"),
		Entry("a token differing only in case", "subscribe", "Secret", "abc123", "secret"),
		Entry("a wrong mode", "unsubscribe", "secret", "abc123", "secret"),
		Entry("a missing mode", "", "secret", "abc123", "secret"),
		Entry("an empty challenge", "subscribe", "secret", "", "secret"),
		Entry("an unconfigured verify token", "subscribe", "", "abc123", ""),
	)
})
