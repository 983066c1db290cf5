// Package nametags replaces the vanilla name tags of a Dragonfly server with
// configurable tags carried by a passenger entity that rides each player.
//
// Each player owns one name tag entity. Its passenger is an invisible actor
// whose name tag shows the rendered text; which players see it is decided
// per viewer by the plugin's visibility rules:
//   - players who turned name tags off see none
//   - players see their own tag only with show-self enabled and while alive
//   - groups may require a permission to see their members' tags
//
// Runtime ids of players differ between clients, so each connection is
// wrapped: it learns the ids its client uses, strips the vanilla tag from the
// players it sends, and seats passengers on them as they spawn.
//
// # Quick Start
//
//	plugin, err := nametags.NewBuilder().
//	    Directory("plugins/nametags").
//	    Init()
//	if err != nil {
//	    panic(err)
//	}
//	defer plugin.Close()
//
//	plugin.WrapListeners(&conf)
//	for _, c := range plugin.Commands() {
//	    cmd.Register(c)
//	}
//
//	srv := conf.New()
//	srv.Listen()
//	for p := range srv.Accept() {
//	    plugin.Accept(p)
//	}
//
// # Configuration
//
// config.toml, messages.toml and data.toml live in the plugin directory and
// are created with defaults on first start. /nametags-reload re-reads all of
// them and recreates every tag.
package nametags

// Version is the nametags version.
const Version = "1.0.0"
