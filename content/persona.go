package content

import "math/rand/v2"

// Attributes 角色属性读取接口，模板占位符与属性条件通过它访问 Character
type Attributes interface {
	Attribute(key string) (string, bool)
}

func attribute(character any, key string) (string, bool) {
	a, ok := character.(Attributes)
	if !ok {
		return "", false
	}
	return a.Attribute(key)
}

// Persona 简单角色实现，name 属性返回 Name
type Persona struct {
	Name   string            `yaml:"name" json:"name"`
	Traits map[string]string `yaml:"traits,omitempty" json:"traits,omitempty"`
}

// Attribute 实现 Attributes
func (p *Persona) Attribute(key string) (string, bool) {
	if key == "name" {
		return p.Name, p.Name != ""
	}
	v, ok := p.Traits[key]
	return v, ok
}

// FavMusicGenres 演示内容包使用的音乐流派
var FavMusicGenres = []string{"jazz", "rock", "metal", "calypso"}

var personaNames = []string{
	"Ada", "Bram", "Cleo", "Dario", "Edith", "Felix", "Greta", "Hugo",
	"Iris", "Jonas", "Kira", "Lev", "Mira", "Nico", "Oona", "Pavel",
}

// RandomPersona 生成演示角色，带有 fav_music_genre 属性
func RandomPersona(rng *rand.Rand) *Persona {
	return &Persona{
		Name: personaNames[rng.IntN(len(personaNames))],
		Traits: map[string]string{
			"fav_music_genre": FavMusicGenres[rng.IntN(len(FavMusicGenres))],
		},
	}
}
