package dedupe_test

import (
	"context"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"pacelink.app/relay/internal/dedupe"
)

var _ = Describe("Redis", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("fails open when redis is unreachable", func() {
		client := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 100 * time.Millisecond,
			MaxRetries:  -1,
		})
		defer client.Close()

		r := dedupe.NewRedis(client, "test:")
		Expect(r.Admit(ctx, "create:1", time.Minute)).To(BeTrue())
		Expect(r.Admit(ctx, "create:1", time.Minute)).To(BeTrue())
	})

	Context("with a live server", func() {
		var r *dedupe.Redis

		BeforeEach(func() {
			url := os.Getenv("REDIS_URL")
			if url == "" {
				Skip("REDIS_URL not set")
			}
			var (
				client *redis.Client
				err    error
			)
			r, client, err = dedupe.NewRedisFromURL(ctx, url, "pacelink:test:"+GinkgoT().Name()+":")
			Expect(err).ToNot(HaveOccurred())
			DeferCleanup(client.Close)
		})

		It("admits a key once within the window", func() {
			Expect(r.Admit(ctx, "create:1", 2*time.Second)).To(BeTrue())
			Expect(r.Admit(ctx, "create:1", 2*time.Second)).To(BeFalse())
		})

		It("admits again after expiry", func() {
			Expect(r.Admit(ctx, "update:7", time.Second)).To(BeTrue())
			Eventually(func() bool {
				return r.Admit(ctx, "update:7", time.Second)
			}).WithTimeout(3 * time.Second).WithPolling(200 * time.Millisecond).Should(BeTrue())
		})
	})
})
