package router

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Templates holds the user-facing reply texts. Fields left empty in an
// override file keep their defaults.
type Templates struct {
	Welcome      string `yaml:"welcome"`
	OptIn        string `yaml:"opt_in"` // %s: display name
	Help         string `yaml:"help"`
	Restarted    string `yaml:"restarted"`
	Unavailable  string `yaml:"unavailable"`
	InternalFail string `yaml:"internal_fail"`
}

func DefaultTemplates() Templates {
	return Templates{
		Welcome: strings.TrimSpace(`
Olá! Sou JARVIS, uma inteligência artificial especializada em potencializar seu desempenho pessoal e profissional. 🚀

Notei que você ainda não está registrado em nosso sistema. Gostaria de convidá-lo a experimentar gratuitamente nossa plataforma, onde você terá acesso a:

• Assistência personalizada para otimizar sua produtividade
• Organização inteligente de tarefas e compromissos
• Recomendações baseadas em IA para melhorar seu desempenho
• Insights valiosos para tomada de decisões mais eficientes

Junte-se a milhares de pessoas que já estão revolucionando sua rotina diária com o poder da IA.

✨ Acesse agora mesmo: https://jarvis-gilt-eight.vercel.app/

Bem-vindo à nova era da produtividade!`),
		OptIn: "Olá, %s! Para utilizar o JARVIS via WhatsApp, é necessário habilitar as notificações em seu perfil.\n\n" +
			"Acesse https://jarvis-gilt-eight.vercel.app/ e ative as notificações em suas preferências.",
		Help: "🤖 *JARVIS - Assistente Pessoal*\n\n" +
			"Eu sou seu assistente JARVIS e posso responder suas perguntas diretamente aqui no WhatsApp.\n\n" +
			"*Comandos disponíveis:*\n" +
			"- /help ou ajuda: Mostra esta mensagem\n" +
			"- /reiniciar: Reinicia nossa conversa\n\n" +
			"Para começar, basta enviar qualquer pergunta!",
		Restarted:    "Conversa reiniciada! Em que posso ajudar?",
		Unavailable:  "Desculpe, estou enfrentando dificuldades técnicas no momento. Por favor, tente novamente mais tarde.",
		InternalFail: "Ocorreu um erro ao processar sua mensagem. Por favor, tente novamente em alguns instantes.",
	}
}

// LoadTemplates reads a YAML override file on top of the defaults.
func LoadTemplates(path string) (Templates, error) {
	tpl := DefaultTemplates()
	raw, err := os.ReadFile(path)
	if err != nil {
		return tpl, fmt.Errorf("read templates: %w", err)
	}
	if err := yaml.Unmarshal(raw, &tpl); err != nil {
		return tpl, fmt.Errorf("parse templates: %w", err)
	}
	return tpl, nil
}

func (t Templates) optIn(displayName string) string {
	return fmt.Sprintf(t.OptIn, displayName)
}
