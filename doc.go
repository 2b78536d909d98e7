/*
This package provides a small inversion-of-control container.
A Context holds named object definitions, resolves their dependencies
and starts/stops instances in dependency order.

To install tinyioc:

	go get -u github.com/andriiyaremenko/tinyioc

How to use:

	type Repository struct {
		DSN string
	}

	func NewRepository(dsn string) *Repository {
		return &Repository{DSN: dsn}
	}

	type Service struct {
		Repo   *Repository
		Logger *slog.Logger
	}

	func NewService(repo *Repository) *Service {
		return &Service{Repo: repo}
	}

	func (s *Service) Start(ctx context.Context) error {
		// open connections
		return nil
	}

	c := tinyioc.New("BaseContext", tinyioc.WithConfig(provider))

	err := c.RegisterSingletons(
		tinyioc.NewSingleton(NewRepository).
			ConstructorParamByConfig("db.dsn", "postgres://localhost"),
		tinyioc.NewSingleton(NewService).
			ConstructorParamByRef("Repository").
			SetPropertyByRef("logger", "logger").
			StartFunction("start").
			WithLazyLoading(false),
	)
	if err != nil {
		// handle error
	}

	if err := c.Start(ctx); err != nil {
		// handle error
	}
	defer c.Stop(ctx)

	service, err := tinyioc.Get[*Service](ctx, c, "Service")

Constructors:

Constructor should be of form func([context.Context,] T1, ...) [T|(T, error)].
When the first parameter is context.Context, the resolution context is passed.
A constructor resolving other objects itself should pass that context.Context
to Context lookups, otherwise the lookup waits for the resolution in progress.

Wiring:

Constructor arguments and properties are wired by Value, Ref, Type, Group or Config.
Properties can also be wired by DefinitionGroup.
Property is assigned with Set<Name> method if there is one, otherwise to exported field <Name>.
Properties referencing each other in a cycle are resolved, constructor arguments are not:
such cycle fails with *CircularDependencyError.
When A's constructor needs B and B has a property referencing A,
B is handed to A's constructor before that property is assigned.
The property is assigned as soon as A is constructed and B's start method runs after that.
A constructor should not read properties of its arguments that point back to it.

A preinstantiated definition keeps its instance when copied by Clone or ImportContext:
every copy wires and starts the same object.

Lifecycle:

Definitions and Contexts share the states of package lifecycle.
A definition is Started once its start method returned.
Dependents receive an instance as soon as it is constructed and wired,
without waiting for its start method.
Stopping a definition calls its stop method and drops the instance,
so the next start builds a fresh one.

Functions:
  - tinyioc.New
  - tinyioc.NewSingleton
  - tinyioc.PreinstantiatedSingleton
  - tinyioc.Constructor
  - tinyioc.Get
  - tinyioc.GetByType
  - tinyioc.TypeNameOf
  - tinyioc.SetDefaultLogger

Wiring:
  - tinyioc.Value
  - tinyioc.Ref
  - tinyioc.Type
  - tinyioc.Group
  - tinyioc.Config
  - tinyioc.DefinitionGroup
*/
package tinyioc
