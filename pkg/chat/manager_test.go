package chat_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/flowchat/pkg/chat"
)

var _ = Describe("Manager", func() {
	var manager *chat.Manager

	BeforeEach(func() {
		manager = chat.NewManager(func(id string) *chat.Session {
			return chat.NewSession(id, &scriptedSender{answer: "ok"})
		})
	})

	It("creates sessions with unique IDs", func() {
		a := manager.Create()
		b := manager.Create()
		Expect(a.ID()).NotTo(Equal(b.ID()))
		Expect(manager.Len()).To(Equal(2))
	})

	It("gets sessions by ID", func() {
		s := manager.Create()
		got, ok := manager.Get(s.ID())
		Expect(ok).To(BeTrue())
		Expect(got).To(BeIdenticalTo(s))

		_, ok = manager.Get("missing")
		Expect(ok).To(BeFalse())
	})

	It("keeps session histories independent", func() {
		a := manager.Create()
		b := manager.Create()

		_, err := a.Submit(context.Background(), "hi")
		Expect(err).NotTo(HaveOccurred())

		Expect(a.History()).To(HaveLen(2))
		Expect(b.History()).To(BeEmpty())
	})

	It("deletes sessions", func() {
		s := manager.Create()
		Expect(manager.Delete(s.ID())).To(BeTrue())
		Expect(manager.Delete(s.ID())).To(BeFalse())
		Expect(manager.Len()).To(Equal(0))
	})

	It("builds sessions from a shared sender", func() {
		sender := &scriptedSender{answer: "shared"}
		m := chat.NewManager(chat.NewSessionFactory(sender, chat.WithEndpointID("flow-1")))

		a := m.Create()
		b := m.Create()
		_, err := a.Submit(context.Background(), "one")
		Expect(err).NotTo(HaveOccurred())
		_, err = b.Submit(context.Background(), "two")
		Expect(err).NotTo(HaveOccurred())

		Expect(sender.calls).To(Equal([]string{"one", "two"}))
		Expect(a.History()).To(HaveLen(2))
	})
})

var _ = Describe("Manager eviction", func() {
	var (
		now     time.Time
		factory chat.SessionFactory
	)

	clock := func() time.Time { return now }

	BeforeEach(func() {
		now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		factory = chat.NewSessionFactory(&scriptedSender{answer: "ok"})
	})

	It("evicts the least recently used session at the cap", func() {
		m := chat.NewManager(factory, chat.WithMaxSessions(2), chat.WithClock(clock))

		first := m.Create()
		now = now.Add(time.Minute)
		second := m.Create()
		now = now.Add(time.Minute)

		_, ok := m.Get(first.ID())
		Expect(ok).To(BeTrue())
		now = now.Add(time.Minute)

		third := m.Create()

		Expect(m.Len()).To(Equal(2))
		_, ok = m.Get(second.ID())
		Expect(ok).To(BeFalse())
		_, ok = m.Get(first.ID())
		Expect(ok).To(BeTrue())
		_, ok = m.Get(third.ID())
		Expect(ok).To(BeTrue())
	})

	It("drops sessions idle longer than the TTL", func() {
		m := chat.NewManager(factory, chat.WithIdleTTL(time.Hour), chat.WithClock(clock))

		idle := m.Create()
		busy := m.Create()

		now = now.Add(45 * time.Minute)
		_, ok := m.Get(busy.ID())
		Expect(ok).To(BeTrue())

		now = now.Add(30 * time.Minute)
		_, ok = m.Get(idle.ID())
		Expect(ok).To(BeFalse())
		_, ok = m.Get(busy.ID())
		Expect(ok).To(BeTrue())
	})

	It("prunes expired sessions on demand", func() {
		m := chat.NewManager(factory, chat.WithIdleTTL(time.Minute), chat.WithClock(clock))
		m.Create()
		m.Create()

		now = now.Add(2 * time.Minute)
		Expect(m.Prune()).To(Equal(2))
		Expect(m.Len()).To(Equal(0))
	})

	It("prunes expired sessions when creating", func() {
		m := chat.NewManager(factory, chat.WithIdleTTL(time.Minute), chat.WithClock(clock))
		m.Create()

		now = now.Add(2 * time.Minute)
		m.Create()
		Expect(m.Len()).To(Equal(1))
	})

	It("keeps every session without limits", func() {
		m := chat.NewManager(factory, chat.WithClock(clock))
		for range 10 {
			m.Create()
			now = now.Add(24 * time.Hour)
		}
		Expect(m.Len()).To(Equal(10))
	})
})
