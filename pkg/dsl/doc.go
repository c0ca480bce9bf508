/*
Package dsl provides a fluent Go builder for chatflow graphs.

It is an alternative to JSON or YAML files when flows are generated in code,
and it is handy in tests.

Example usage:

	b := dsl.New()
	b.Start("start").Go("hello")
	b.Add("hello").Message("Oi!").Go("menu")
	b.Add("menu").Options("Escolha:").
		Choice("Vendas", "thanks").
		Choice("Suporte", "bye")
	b.Add("thanks").Finalize("Obrigado!")
	b.Add("bye").Finalize("Até logo!")

	src, err := b.Build()
	if err != nil {
		return err
	}
	eng, err := chatflow.New("", chatflow.WithSource(src))
*/
package dsl
