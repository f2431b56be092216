package repository

import "context"

// NumeracaoRepository porta do coordenador de numeração sequencial.
//
// ProximoNumero deve ser chamado dentro da MESMA transação que cria a linha da
// nota: adquire lock sobre as fontes consumidoras de número da série (notas e
// faixas inutilizadas), lê o máximo já usado e devolve max+1. O lock fica
// retido até o commit do chamador; sem isso, duas emissões concorrentes podem
// disputar o mesmo número (bug fiscalmente inválido e juridicamente relevante).
//
// Nenhum cache entre requisições: a leitura sob lock acontece sempre fresca.
type NumeracaoRepository interface {
	ProximoNumero(ctx context.Context, serie int, modelo string) (int64, error)
}
