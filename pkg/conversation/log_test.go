package conversation_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/flowchat/pkg/conversation"
)

var _ = Describe("Log", func() {
	var log *conversation.Log

	BeforeEach(func() {
		log = conversation.NewLog()
	})

	It("starts empty", func() {
		Expect(log.All()).To(BeEmpty())
		Expect(log.Len()).To(Equal(0))
	})

	It("returns turns in insertion order", func() {
		log.Append(conversation.NewUserTurn("one"))
		log.Append(conversation.NewAssistantTurn("two"))
		log.Append(conversation.NewUserTurn("three"))

		turns := log.All()
		Expect(turns).To(HaveLen(3))
		Expect(turns[0].Content).To(Equal("one"))
		Expect(turns[0].Role).To(Equal(conversation.RoleUser))
		Expect(turns[1].Content).To(Equal("two"))
		Expect(turns[1].Role).To(Equal(conversation.RoleAssistant))
		Expect(turns[2].Content).To(Equal("three"))
	})

	It("can be read repeatedly without side effects", func() {
		log.Append(conversation.NewUserTurn("hi"))

		first := log.All()
		second := log.All()
		Expect(first).To(Equal(second))
		Expect(log.Len()).To(Equal(1))
	})

	It("is not affected by changes to a returned slice", func() {
		log.Append(conversation.NewUserTurn("hi"))

		turns := log.All()
		turns[0].Content = "changed"
		Expect(log.All()[0].Content).To(Equal("hi"))
	})

	It("is empty immediately after Clear", func() {
		log.Append(conversation.NewUserTurn("hi"))
		log.Append(conversation.NewAssistantTurn("hello"))

		log.Clear()
		Expect(log.All()).To(BeEmpty())
		Expect(log.Len()).To(Equal(0))
	})

	It("accepts appends after Clear", func() {
		log.Append(conversation.NewUserTurn("before"))
		log.Clear()
		log.Append(conversation.NewUserTurn("after"))

		Expect(log.All()).To(HaveLen(1))
		Expect(log.All()[0].Content).To(Equal("after"))
	})

	It("advances the generation on Clear", func() {
		gen := log.Append(conversation.NewUserTurn("hi"))
		Expect(log.Generation()).To(Equal(gen))

		log.Clear()
		Expect(log.Generation()).To(Equal(gen + 1))
	})

	It("appends conditionally while the generation holds", func() {
		gen := log.Append(conversation.NewUserTurn("hi"))

		Expect(log.AppendIf(gen, conversation.NewAssistantTurn("hello"))).To(BeTrue())
		Expect(log.Len()).To(Equal(2))
	})

	It("refuses a conditional append after Clear", func() {
		gen := log.Append(conversation.NewUserTurn("hi"))
		log.Clear()

		Expect(log.AppendIf(gen, conversation.NewAssistantTurn("hello"))).To(BeFalse())
		Expect(log.All()).To(BeEmpty())
	})

	It("handles concurrent appends", func() {
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				log.Append(conversation.NewUserTurn("hi"))
			}()
		}
		wg.Wait()

		Expect(log.Len()).To(Equal(50))
	})
})

var _ = Describe("Role", func() {
	It("accepts user and assistant", func() {
		Expect(conversation.RoleUser.Valid()).To(BeTrue())
		Expect(conversation.RoleAssistant.Valid()).To(BeTrue())
		Expect(conversation.Role("system").Valid()).To(BeFalse())
	})
})
