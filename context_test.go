package tinyioc_test

import (
	"context"
	"errors"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/andriiyaremenko/tinyioc"
	"github.com/andriiyaremenko/tinyioc/lifecycle"
)

var _ = Describe("Context", func() {
	var (
		ctx context.Context
		c   *tinyioc.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		c = tinyioc.New("BaseContext")

		DeferCleanup(func() {
			if c.Status() == lifecycle.Started {
				Expect(c.Stop(ctx)).Should(Succeed())
			}
		})
	})

	Context("registration", func() {
		It("should register definitions and list them in registration order", func() {
			Expect(c.RegisterSingletons(
				tinyioc.NewSingleton(NewHolder, "first").ConstructorParamByValue("1"),
				tinyioc.NewSingleton(NewHolder, "second").ConstructorParamByValue("2"),
				tinyioc.Constructor(NewEnglish),
			)).Should(Succeed())

			Expect(c.DefinitionNames()).Should(Equal([]string{"first", "second", "English"}))
			Expect(c.Status()).Should(Equal(lifecycle.NotStarted))
		})

		It("should return error on duplicate name", func() {
			Expect(c.RegisterDefinition(tinyioc.NewSingleton(NewHolder, "A").ConstructorParamByValue("1"))).
				Should(Succeed())

			err := c.RegisterDefinition(tinyioc.NewSingleton(NewHolder, "A").ConstructorParamByValue("2"))

			Expect(err).Should(HaveOccurred())
			Expect(err).Should(BeAssignableToTypeOf(new(tinyioc.RegistrationError)))
			Expect(err).Should(MatchError(tinyioc.ErrDuplicateDefinition))
		})

		It("should replace definition with overwrite", func() {
			Expect(c.RegisterDefinition(tinyioc.NewSingleton(NewHolder, "A").ConstructorParamByValue("1"))).
				Should(Succeed())
			Expect(c.RegisterDefinition(tinyioc.NewSingleton(NewHolder, "A").ConstructorParamByValue("2"), true)).
				Should(Succeed())

			Expect(c.Start(ctx)).Should(Succeed())

			holder, err := tinyioc.Get[*Holder](ctx, c, "A")

			Expect(err).ShouldNot(HaveOccurred())
			Expect(holder.Value).Should(Equal("2"))
			Expect(c.DefinitionNames()).Should(Equal([]string{"A"}))
		})

		It("should return error if name is registered in parent", func() {
			parent := tinyioc.New("parent")
			Expect(parent.RegisterDefinition(tinyioc.NewSingleton(NewEnglish))).Should(Succeed())

			child := tinyioc.New("child", tinyioc.WithParent(parent))
			err := child.RegisterDefinition(tinyioc.NewSingleton(NewEnglish))

			Expect(err).Should(MatchError(tinyioc.ErrDefinedInAncestor))
		})

		It("should return error if definition belongs to another context", func() {
			def := tinyioc.NewSingleton(NewEnglish)
			other := tinyioc.New("other")

			Expect(other.RegisterDefinition(def)).Should(Succeed())
			Expect(c.RegisterDefinition(def)).Should(MatchError(tinyioc.ErrDefinitionOwned))
		})

		It("should return error for invalid definitions", func() {
			Expect(c.RegisterDefinition(nil)).Should(MatchError(tinyioc.ErrNotADefinition))
			Expect(c.RegisterSingletons(nil)).Should(MatchError(tinyioc.ErrNotADefinition))
			Expect(c.RegisterSingletons(tinyioc.Constructor("not a function"))).
				Should(MatchError(tinyioc.ErrNotAConstructor))
			Expect(c.RegisterDefinition(tinyioc.NewSingleton(func(...string) *Holder { return nil }))).
				Should(MatchError(tinyioc.ErrVariadicConstructor))
			Expect(c.RegisterDefinition(tinyioc.NewSingleton(NewHolder))).
				Should(MatchError(tinyioc.ErrArgumentCount))
			Expect(c.RegisterDefinition(tinyioc.NewSingleton(func() {}, "nothing"))).
				Should(MatchError(tinyioc.ErrUnexpectedConstructorOut))
			Expect(c.RegisterDefinition(tinyioc.NewSingleton(func() error { return nil }, "onlyError"))).
				Should(MatchError(tinyioc.ErrUnexpectedConstructorOut))
			Expect(c.RegisterDefinition(tinyioc.NewSingleton(func() (*Holder, string) { return nil, "" }, "pair"))).
				Should(MatchError(tinyioc.ErrUnexpectedConstructorOut))
			Expect(c.RegisterDefinition(
				tinyioc.NewSingleton(NewChorus).ConstructorParam(tinyioc.DefinitionGroup("g")),
			)).Should(MatchError(tinyioc.ErrDefinitionGroupArgument))
			Expect(c.AddObjectDefinitionInspector(nil)).Should(MatchError(tinyioc.ErrNilInspector))
		})

		It("should not register after start", func() {
			Expect(c.Start(ctx)).Should(Succeed())

			err := c.RegisterDefinition(tinyioc.NewSingleton(NewEnglish))

			Expect(err).Should(BeAssignableToTypeOf(new(tinyioc.RegistrationError)))

			var stateErr *tinyioc.LifecycleStateError
			Expect(errors.As(err, &stateErr)).Should(BeTrue())
			Expect(stateErr.Expected).Should(Equal(lifecycle.NotStarted))
			Expect(stateErr.Actual).Should(Equal(lifecycle.Started))

			Expect(c.AddObjectNameToGroup("g", "English")).Should(HaveOccurred())
			Expect(c.AddObjectDefinitionInspector(tinyioc.StartStopMethodsInspector{})).Should(HaveOccurred())
		})
	})

	Context("lookup", func() {
		It("should find definitions by name locally, then in parent", func() {
			parent := tinyioc.New("parent")
			english := tinyioc.NewSingleton(NewEnglish)
			Expect(parent.RegisterDefinition(english)).Should(Succeed())

			child := tinyioc.New("child", tinyioc.WithParent(parent))
			spanish := tinyioc.NewSingleton(NewSpanish)
			Expect(child.RegisterDefinition(spanish)).Should(Succeed())

			def, err := child.GetDefinitionByName("English")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(def).Should(BeIdenticalTo(english))

			def, err = child.GetDefinitionByName("Spanish")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(def).Should(BeIdenticalTo(spanish))

			_, err = parent.GetDefinitionByName("Spanish")
			Expect(err).Should(BeAssignableToTypeOf(new(tinyioc.ResolutionError)))
			Expect(err).Should(MatchError(tinyioc.ErrDefinitionNotFound))
		})

		It("should find autowire candidates by type", func() {
			Expect(c.RegisterSingletons(
				tinyioc.NewSingleton(NewHolder, "one").ConstructorParamByValue("1"),
				tinyioc.NewSingleton(NewHolder, "two").ConstructorParamByValue("2"),
				tinyioc.NewSingleton(NewHolder, "hidden").ConstructorParamByValue("3").WithAutowireCandidate(false),
				tinyioc.Constructor(NewEnglish),
			)).Should(Succeed())

			holderType := tinyioc.TypeNameOf[*Holder]()

			defs, err := c.GetDefinitionsByType(holderType)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(defs).Should(HaveLen(2))
			Expect(defs[0].Name()).Should(Equal("one"))
			Expect(defs[1].Name()).Should(Equal("two"))

			_, err = c.GetDefinitionByType(holderType)
			Expect(err).Should(MatchError(tinyioc.ErrAmbiguousType))

			def, err := c.GetDefinitionByType(tinyioc.TypeNameOf[*English]())
			Expect(err).ShouldNot(HaveOccurred())
			Expect(def.Name()).Should(Equal("English"))

			_, err = c.GetDefinitionsByType(tinyioc.TypeNameOf[*Spanish]())
			Expect(err).Should(MatchError(tinyioc.ErrTypeNotFound))

			defs, err = c.GetDefinitionsByType(tinyioc.TypeNameOf[*Spanish](), false)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(defs).Should(BeEmpty())

			Expect(c.Start(ctx)).Should(Succeed())

			objects, err := c.GetObjectsByType(ctx, holderType)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(objects).Should(HaveLen(2))
			Expect(objects[0].(*Holder).Value).Should(Equal("1"))
			Expect(objects[1].(*Holder).Value).Should(Equal("2"))

			english, err := tinyioc.GetByType[*English](ctx, c)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(english.Greet()).Should(Equal("hello"))
		})

		It("should let local definitions shadow parent ones by name in type lookup", func() {
			parent := tinyioc.New("parent")
			Expect(parent.RegisterDefinition(
				tinyioc.NewSingleton(NewHolder, "parentHolder").ConstructorParamByValue("parent"),
			)).Should(Succeed())

			child := tinyioc.New("child", tinyioc.WithParent(parent))
			Expect(child.RegisterDefinition(
				tinyioc.NewSingleton(NewHolder, "childHolder").ConstructorParamByValue("child"),
			)).Should(Succeed())

			defs, err := child.GetDefinitionsByType(tinyioc.TypeNameOf[*Holder]())

			Expect(err).ShouldNot(HaveOccurred())
			Expect(defs).Should(HaveLen(2))
			Expect(defs[0].Name()).Should(Equal("parentHolder"))
			Expect(defs[1].Name()).Should(Equal("childHolder"))
		})
	})

	Context("groups", func() {
		It("should return group members in insertion order", func() {
			a1 := tinyioc.NewSingleton(NewHolder, "A1").ConstructorParamByValue("1")
			a2 := tinyioc.NewSingleton(NewHolder, "A2").ConstructorParamByValue("2")

			Expect(c.RegisterSingletons(a2, a1)).Should(Succeed())
			Expect(c.AddObjectNameToGroup("g", "A1")).Should(Succeed())
			Expect(c.AddObjectNameToGroup("g", "A2")).Should(Succeed())

			defs, err := c.GetDefinitionsByGroup("g")

			Expect(err).ShouldNot(HaveOccurred())
			Expect(defs).Should(HaveLen(2))
			Expect(defs[0]).Should(BeIdenticalTo(a1))
			Expect(defs[1]).Should(BeIdenticalTo(a2))
		})

		It("should keep duplicates and return empty unknown group", func() {
			Expect(c.RegisterDefinition(tinyioc.NewSingleton(NewEnglish))).Should(Succeed())
			Expect(c.AddObjectNameToGroup("g", "English")).Should(Succeed())
			Expect(c.AddObjectNameToGroup("g", "English")).Should(Succeed())

			defs, err := c.GetDefinitionsByGroup("g")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(defs).Should(HaveLen(2))

			defs, err = c.GetDefinitionsByGroup("unknown")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(defs).Should(BeEmpty())
		})

		It("should not look for group members in parent", func() {
			parent := tinyioc.New("parent")
			Expect(parent.RegisterDefinition(tinyioc.NewSingleton(NewEnglish))).Should(Succeed())

			child := tinyioc.New("child", tinyioc.WithParent(parent))
			Expect(child.AddObjectNameToGroup("g", "English")).Should(Succeed())

			_, err := child.GetDefinitionsByGroup("g")

			Expect(err).Should(MatchError(tinyioc.ErrDefinitionNotFound))
		})
	})

	Context("lifecycle", func() {
		It("should not instantiate lazy definitions on start", func() {
			var calls atomic.Int32
			constructor := func() *Holder {
				calls.Add(1)
				return &Holder{}
			}

			Expect(c.RegisterDefinition(tinyioc.NewSingleton(constructor, "lazy"))).Should(Succeed())
			Expect(c.Start(ctx)).Should(Succeed())
			Expect(calls.Load()).Should(BeZero())

			_, err := c.GetObjectByName(ctx, "lazy")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(calls.Load()).Should(Equal(int32(1)))
		})

		It("should instantiate non-lazy definitions exactly once on start", func() {
			var calls atomic.Int32
			constructor := func() *Holder {
				calls.Add(1)
				return &Holder{}
			}

			Expect(c.RegisterDefinition(tinyioc.NewSingleton(constructor, "eager").WithLazyLoading(false))).
				Should(Succeed())
			Expect(c.Start(ctx)).Should(Succeed())
			Expect(calls.Load()).Should(Equal(int32(1)))

			_, err := c.GetObjectByName(ctx, "eager")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(calls.Load()).Should(Equal(int32(1)))
		})

		It("should start parent before child and stop it with child", func() {
			parent := tinyioc.New("parent")
			Expect(parent.RegisterDefinition(
				tinyioc.NewSingleton(NewHolder, "greeting").ConstructorParamByValue("hi"),
			)).Should(Succeed())

			child := tinyioc.New("child", tinyioc.WithParent(parent))
			Expect(child.RegisterDefinition(
				tinyioc.NewSingleton(func(h *Holder) *Holder { return &Holder{Value: h.Value + "!"} }, "loud").
					ConstructorParamByRef("greeting").
					WithLazyLoading(false),
			)).Should(Succeed())

			Expect(child.Start(ctx)).Should(Succeed())
			Expect(parent.Status()).Should(Equal(lifecycle.Started))
			Expect(child.Status()).Should(Equal(lifecycle.Started))

			loud, err := tinyioc.Get[*Holder](ctx, child, "loud")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(loud.Value).Should(Equal("hi!"))

			Expect(child.Stop(ctx)).Should(Succeed())
			Expect(child.Status()).Should(Equal(lifecycle.Stopped))
			Expect(parent.Status()).Should(Equal(lifecycle.Stopped))
		})

		It("should not start child if parent fails", func() {
			parent := tinyioc.New("parent")
			Expect(parent.RegisterDefinition(
				tinyioc.NewSingleton(func() (*Holder, error) { return nil, errors.New("no database") }).
					WithLazyLoading(false),
			)).Should(Succeed())

			var calls atomic.Int32
			child := tinyioc.New("child", tinyioc.WithParent(parent))
			Expect(child.RegisterDefinition(
				tinyioc.NewSingleton(func() *English { calls.Add(1); return &English{} }).WithLazyLoading(false),
			)).Should(Succeed())

			err := child.Start(ctx)

			Expect(err).Should(MatchError(ContainSubstring("no database")))
			Expect(child.Status()).Should(Equal(lifecycle.Error))
			Expect(calls.Load()).Should(BeZero())
		})

		It("should stop started definitions and fail start when non-lazy definition fails", func() {
			server := tinyioc.NewSingleton(NewServer).
				StartFunction("start").
				StopFunction("stop").
				WithLazyLoading(false)
			broken := tinyioc.NewSingleton(func() (*Holder, error) { return nil, errors.New("boom") }, "broken").
				WithLazyLoading(false)

			Expect(c.RegisterSingletons(server, broken)).Should(Succeed())

			err := c.Start(ctx)

			Expect(err).Should(HaveOccurred())

			var instErr *tinyioc.InstantiationError
			Expect(errors.As(err, &instErr)).Should(BeTrue())
			Expect(instErr.Name).Should(Equal("broken"))

			Expect(c.Status()).Should(Equal(lifecycle.Error))
			Expect(server.Status()).Should(Equal(lifecycle.Stopped))
		})

		It("should stop dependency whose start method outlived failed start", func() {
			release := make(chan struct{})
			slow := &Slow{release: release}
			slowDef := tinyioc.PreinstantiatedSingleton(slow, "slow").
				StartFunction("begin").
				StopFunction("end")
			failer := tinyioc.PreinstantiatedSingleton(&Failer{release: release}, "failer").
				SetPropertyByRef("slow", "slow").
				StartFunction("boom").
				WithLazyLoading(false)

			Expect(c.RegisterSingletons(slowDef, failer)).Should(Succeed())

			err := c.Start(ctx)

			Expect(err).Should(MatchError(ContainSubstring("boom")))
			Expect(c.Status()).Should(Equal(lifecycle.Error))
			Expect(slow.stops.Load()).Should(Equal(int32(1)))
			Expect(slowDef.Status()).Should(Equal(lifecycle.Stopped))
		})

		It("should start again with fresh instances after stop", func() {
			Expect(c.RegisterDefinition(tinyioc.NewSingleton(NewHolder, "A").ConstructorParamByValue("hello"))).
				Should(Succeed())

			Expect(c.Start(ctx)).Should(Succeed())

			first, err := tinyioc.Get[*Holder](ctx, c, "A")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(first.Value).Should(Equal("hello"))

			Expect(c.Stop(ctx)).Should(Succeed())
			Expect(c.Status()).Should(Equal(lifecycle.Stopped))

			Expect(c.Start(ctx)).Should(Succeed())

			second, err := tinyioc.Get[*Holder](ctx, c, "A")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(second.Value).Should(Equal("hello"))
			Expect(second).ShouldNot(BeIdenticalTo(first))
		})

		It("should call start and stop methods", func() {
			def := tinyioc.NewSingleton(NewServer).StartFunction("start").StopFunction("stop")
			Expect(c.RegisterDefinition(def)).Should(Succeed())
			Expect(c.Start(ctx)).Should(Succeed())

			server, err := tinyioc.Get[*Server](ctx, c, "Server")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(server.started.Load()).Should(BeTrue())
			Expect(def.Status()).Should(Equal(lifecycle.Started))

			Expect(c.Stop(ctx)).Should(Succeed())
			Expect(server.started.Load()).Should(BeFalse())
			Expect(server.stops.Load()).Should(Equal(int32(1)))
			Expect(def.Status()).Should(Equal(lifecycle.Stopped))
		})
	})

	Context("composition", func() {
		It("should clone into independent context", func() {
			Expect(c.RegisterDefinition(tinyioc.NewSingleton(NewHolder, "A").ConstructorParamByValue("x"))).
				Should(Succeed())
			Expect(c.AddObjectNameToGroup("g", "A")).Should(Succeed())

			clone, err := c.Clone("copy")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(clone.Name()).Should(Equal("copy"))

			Expect(c.Start(ctx)).Should(Succeed())
			Expect(clone.Start(ctx)).Should(Succeed())
			DeferCleanup(func() { Expect(clone.Stop(ctx)).Should(Succeed()) })

			original, err := tinyioc.Get[*Holder](ctx, c, "A")
			Expect(err).ShouldNot(HaveOccurred())

			copied, err := tinyioc.Get[*Holder](ctx, clone, "A")
			Expect(err).ShouldNot(HaveOccurred())

			Expect(copied).ShouldNot(BeIdenticalTo(original))
			Expect(original.Value).Should(Equal("x"))
			Expect(copied.Value).Should(Equal("x"))

			original.Value = "changed"
			Expect(copied.Value).Should(Equal("x"))

			originalDef, _ := c.GetDefinitionByName("A")
			clonedDef, _ := clone.GetDefinitionByName("A")
			Expect(clonedDef).ShouldNot(BeIdenticalTo(originalDef))

			members, err := clone.GetDefinitionsByGroup("g")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(members).Should(ConsistOf(clonedDef))
		})

		It("should share instance of preinstantiated definition with clone", func() {
			instance := &Holder{Value: "shared"}
			Expect(c.RegisterDefinition(tinyioc.PreinstantiatedSingleton(instance, "A"))).Should(Succeed())

			clone, err := c.Clone("copy")
			Expect(err).ShouldNot(HaveOccurred())

			Expect(c.Start(ctx)).Should(Succeed())
			Expect(clone.Start(ctx)).Should(Succeed())
			DeferCleanup(func() { Expect(clone.Stop(ctx)).Should(Succeed()) })

			original, err := tinyioc.Get[*Holder](ctx, c, "A")
			Expect(err).ShouldNot(HaveOccurred())

			copied, err := tinyioc.Get[*Holder](ctx, clone, "A")
			Expect(err).ShouldNot(HaveOccurred())

			Expect(original).Should(BeIdenticalTo(instance))
			Expect(copied).Should(BeIdenticalTo(instance))
		})

		It("should not clone started context", func() {
			Expect(c.Start(ctx)).Should(Succeed())

			_, err := c.Clone("copy")

			Expect(err).Should(BeAssignableToTypeOf(new(tinyioc.LifecycleStateError)))
		})

		It("should import definitions of another context", func() {
			other := tinyioc.New("other")
			Expect(other.RegisterSingletons(
				tinyioc.NewSingleton(NewHolder, "A").ConstructorParamByValue("second"),
				tinyioc.Constructor(NewEnglish),
			)).Should(Succeed())

			Expect(c.RegisterDefinition(tinyioc.NewSingleton(NewHolder, "A").ConstructorParamByValue("first"))).
				Should(Succeed())

			Expect(c.ImportContext(other)).Should(MatchError(tinyioc.ErrDuplicateDefinition))
			Expect(c.ImportContext(other, true)).Should(Succeed())
			Expect(c.Start(ctx)).Should(Succeed())

			holder, err := tinyioc.Get[*Holder](ctx, c, "A")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(holder.Value).Should(Equal("second"))

			imported, _ := c.GetDefinitionByName("English")
			original, _ := other.GetDefinitionByName("English")
			Expect(imported).ShouldNot(BeIdenticalTo(original))
			Expect(original.Status()).Should(Equal(lifecycle.NotStarted))
		})

		It("should not import started context", func() {
			other := tinyioc.New("other")
			Expect(other.Start(ctx)).Should(Succeed())
			DeferCleanup(func() { Expect(other.Stop(ctx)).Should(Succeed()) })

			Expect(c.ImportContext(other)).Should(HaveOccurred())
		})
	})

	Context("inspectors", func() {
		It("should replace definitions once before start", func() {
			var inspected atomic.Int32
			Expect(c.RegisterSingletons(
				tinyioc.NewSingleton(NewHolder, "A").ConstructorParamByValue("original"),
				tinyioc.Constructor(NewEnglish),
			)).Should(Succeed())

			Expect(c.AddObjectDefinitionInspector(tinyioc.InspectorFuncs{
				Interested: func(def *tinyioc.ObjectDefinition) bool { return def.Name() == "A" },
				Inspect: func(def *tinyioc.ObjectDefinition) *tinyioc.ObjectDefinition {
					inspected.Add(1)
					return tinyioc.NewSingleton(NewHolder, "A").ConstructorParamByValue("inspected")
				},
			})).Should(Succeed())

			Expect(c.Start(ctx)).Should(Succeed())

			holder, err := tinyioc.Get[*Holder](ctx, c, "A")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(holder.Value).Should(Equal("inspected"))
			Expect(inspected.Load()).Should(Equal(int32(1)))

			Expect(c.Stop(ctx)).Should(Succeed())
			Expect(c.Start(ctx)).Should(Succeed())
			Expect(inspected.Load()).Should(Equal(int32(1)))
			Expect(c.DefinitionNames()).Should(Equal([]string{"A", "English"}))
		})

		It("should run inspectors in registration order", func() {
			var order []string
			Expect(c.RegisterDefinition(tinyioc.NewSingleton(NewEnglish))).Should(Succeed())

			for _, name := range []string{"first", "second"} {
				Expect(c.AddObjectDefinitionInspector(tinyioc.InspectorFuncs{
					Inspect: func(*tinyioc.ObjectDefinition) *tinyioc.ObjectDefinition {
						order = append(order, name)
						return nil
					},
				})).Should(Succeed())
			}

			Expect(c.Start(ctx)).Should(Succeed())
			Expect(order).Should(Equal([]string{"first", "second"}))
		})

		It("should set start and stop methods of Starter and Stopper", func() {
			def := tinyioc.NewSingleton(NewServer).WithLazyLoading(false)
			Expect(c.RegisterDefinition(def)).Should(Succeed())
			Expect(c.AddObjectDefinitionInspector(tinyioc.StartStopMethodsInspector{})).Should(Succeed())

			Expect(c.Start(ctx)).Should(Succeed())
			Expect(def.StartMethod()).Should(Equal("Start"))
			Expect(def.StopMethod()).Should(Equal("Stop"))

			server, err := tinyioc.Get[*Server](ctx, c, "Server")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(server.starts.Load()).Should(Equal(int32(1)))
		})
	})

	Context("config", func() {
		It("should delegate to config provider", func() {
			configured := tinyioc.New("configured", tinyioc.WithConfig(mapConfig{"app.name": "demo"}))

			Expect(configured.HasConfig("app.name")).Should(BeTrue())
			Expect(configured.GetConfig("app.name", "default")).Should(Equal("demo"))
			Expect(configured.HasConfig("app.version")).Should(BeFalse())
			Expect(configured.GetConfig("app.version", "1.0")).Should(Equal("1.0"))

			child := tinyioc.New("child", tinyioc.WithParent(configured))
			Expect(child.GetConfig("app.name", nil)).Should(Equal("demo"))

			Expect(c.HasConfig("app.name")).Should(BeFalse())
		})
	})
})
