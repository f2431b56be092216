package fiscal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
	domfiscal "github.com/jovemegidio/zyntra-fiscal/internal/domain/fiscal"
	domnfe "github.com/jovemegidio/zyntra-fiscal/internal/domain/nfe"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/repository"
	infranfe "github.com/jovemegidio/zyntra-fiscal/internal/infrastructure/nfe"
	"github.com/jovemegidio/zyntra-fiscal/internal/infrastructure/sefaz"
	pkgnfe "github.com/jovemegidio/zyntra-fiscal/pkg/nfe"
)

// ItemEmissao item do pedido de emissão, com os fatos tributários declarados
// pelo chamador.
type ItemEmissao struct {
	Codigo        string
	Descricao     string
	NCM           string
	CFOP          string
	GTIN          string
	Unidade       string
	Quantidade    decimal.Decimal
	ValorUnitario decimal.Decimal
	Desconto      decimal.Decimal

	AliqICMS   decimal.Decimal
	AliqICMSST decimal.Decimal
	MVAST      decimal.Decimal
	AliqIPI    decimal.Decimal
	AliqPIS    decimal.Decimal
	AliqCOFINS decimal.Decimal
	AliqFCP    decimal.Decimal
}

// PedidoEmissao entrada do caso de uso de emissão.
type PedidoEmissao struct {
	Emitente     entity.Emitente
	Destinatario entity.Destinatario
	Itens        []ItemEmissao

	// Despesas declaradas no nível da nota, rateadas entre os itens.
	Frete    decimal.Decimal
	Seguro   decimal.Decimal
	Desconto decimal.Decimal

	NaturezaOperacao      string
	FormaPagamento        string
	ModalidadeFrete       string
	InformacoesAdicionais string

	AliqIBS decimal.Decimal
	AliqCBS decimal.Decimal
}

// Emitir executa a emissão completa:
//
//  1. calcula tributos e totais (puro, fora de transação);
//  2. numa transação: aloca o número sob lock, monta chave e XML e persiste a
//     nota PENDENTE — o commit libera o lock antes de qualquer I/O de rede;
//  3. assina e submete à SEFAZ com retry para falhas transitórias;
//  4. registra o desfecho (autorização, rejeição ou recibo pendente).
//
// Rejeição da SEFAZ não é erro de Go: a nota fica PENDENTE com código e motivo
// verbatim e a função devolve a nota. Erro de transporte depois de esgotado o
// retry devolve a nota PENDENTE e o erro.
func (s *Service) Emitir(ctx context.Context, pedido PedidoEmissao) (*entity.NotaFiscal, error) {
	if len(pedido.Itens) == 0 {
		return nil, fmt.Errorf("%w: nota sem itens", domain.ErrEntradaInvalida)
	}
	if err := domnfe.ValidarCNPJ(pedido.Emitente.CNPJ); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEntradaInvalida, err)
	}

	agora := s.agora()
	nota, itens, err := s.montarNota(pedido, agora)
	if err != nil {
		return nil, err
	}

	// Transação 1: número, chave, XML e persistência PENDENTE. Nada de rede
	// aqui dentro; o lock de numeração dura só até o commit.
	err = s.tx.Run(ctx, func(
		notaRepo repository.NotaFiscalRepository,
		_ repository.EventoRepository,
		numeracaoRepo repository.NumeracaoRepository,
	) error {
		numero, err := numeracaoRepo.ProximoNumero(ctx, nota.Serie, nota.Modelo)
		if err != nil {
			return err
		}
		nota.Numero = numero

		cnf, err := domnfe.GerarCodigoNumerico()
		if err != nil {
			return err
		}
		chave, err := domnfe.MontarChave(domnfe.ChaveParams{
			CodigoUF:       pkgnfe.CodigoUF(nota.Emitente.UF),
			Emissao:        nota.DataEmissao,
			CNPJ:           nota.Emitente.CNPJ,
			Modelo:         nota.Modelo,
			Serie:          nota.Serie,
			Numero:         nota.Numero,
			TipoEmissao:    nota.TipoEmissao,
			CodigoNumerico: cnf,
		})
		if err != nil {
			return err
		}
		nota.ChaveAcesso = chave

		xmlNota, err := infranfe.MontarXML(infranfe.DadosEmissao{
			Nota:              nota,
			Itens:             itens,
			Ambiente:          s.cfg.Ambiente,
			NaturezaOperacao:  pedido.NaturezaOperacao,
			FormaPagamento:    pedido.FormaPagamento,
			ModalidadeFrete:   pedido.ModalidadeFrete,
			ReformaTributaria: s.cfg.ReformaTributaria,
			VersaoAplicativo:  "zyntra-fiscal 1.0",
			CodigoNumerico:    cnf,
		})
		if err != nil {
			return err
		}
		nota.XMLEnviado = string(xmlNota)

		if err := notaRepo.Create(ctx, nota); err != nil {
			return err
		}
		for i := range itens {
			itens[i].NotaID = nota.ID
			if err := notaRepo.CreateItem(ctx, &itens[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("nota_id", nota.ID).
		Int64("numero", nota.Numero).
		Int("serie", nota.Serie).
		Str("chave", nota.ChaveAcesso).
		Msg("nota criada, submetendo à SEFAZ")

	// Fora do lock: assinatura e submissão.
	xmlEnvio, err := s.assinar([]byte(nota.XMLEnviado), "infNFe")
	if err != nil {
		return nota, err
	}
	nota.XMLEnviado = string(xmlEnvio)

	ret, err := s.sefaz.Autorizar(ctx, xmlEnvio, nota.Numero)
	if err != nil {
		// Transporte esgotado: a nota fica PENDENTE e pode ser ressubmetida.
		s.log.Error().Err(err).Str("nota_id", nota.ID).Msg("submissão à SEFAZ falhou")
		return nota, err
	}

	s.aplicarDesfechoNota(nota, ret, xmlEnvio)
	if err := s.persistirDesfechoNota(ctx, nota); err != nil {
		return nota, err
	}
	return nota, nil
}

// ConsultarRecibo consulta o desfecho de um lote assíncrono pendente e aplica
// o resultado à nota.
func (s *Service) ConsultarRecibo(ctx context.Context, notaID string) (*entity.NotaFiscal, error) {
	nota, err := s.notas.GetByID(ctx, notaID)
	if nota, err = notaObrigatoria(nota, err, notaID); err != nil {
		return nil, err
	}
	if nota.Status != entity.StatusPendente || nota.Recibo == "" {
		return nil, fmt.Errorf("%w: nota %s não tem lote pendente de consulta", domain.ErrEstadoInvalido, notaID)
	}

	ret, err := s.sefaz.ConsultarRecibo(ctx, nota.Recibo)
	if err != nil {
		return nota, err
	}
	if ret.EmProcessamento() {
		// Lote ainda na fila do autorizador; nada muda.
		return nota, nil
	}

	s.aplicarDesfechoNota(nota, ret, []byte(nota.XMLEnviado))
	if err := s.persistirDesfechoNota(ctx, nota); err != nil {
		return nota, err
	}
	return nota, nil
}

// montarNota calcula tributos e totais e produz a nota PENDENTE ainda sem
// número nem chave.
func (s *Service) montarNota(pedido PedidoEmissao, agora time.Time) (*entity.NotaFiscal, []entity.NotaItem, error) {
	op := domfiscal.OperacaoFiscal{
		UFOrigem:          pedido.Emitente.UF,
		UFDestino:         pedido.Destinatario.UF,
		CRT:               pedido.Emitente.CRT,
		ReformaTributaria: s.cfg.ReformaTributaria,
		AliqIBS:           pedido.AliqIBS,
		AliqCBS:           pedido.AliqCBS,
	}

	brutos := make([]decimal.Decimal, len(pedido.Itens))
	calculos := make([]domfiscal.ItemCalculo, len(pedido.Itens))
	for i, item := range pedido.Itens {
		calculos[i] = domfiscal.ItemCalculo{
			Ordem:         i + 1,
			NCM:           item.NCM,
			CFOP:          item.CFOP,
			GTIN:          item.GTIN,
			Quantidade:    item.Quantidade,
			ValorUnitario: item.ValorUnitario,
			Desconto:      item.Desconto,
			AliqICMS:      item.AliqICMS,
			AliqICMSST:    item.AliqICMSST,
			MVAST:         item.MVAST,
			AliqIPI:       item.AliqIPI,
			AliqPIS:       item.AliqPIS,
			AliqCOFINS:    item.AliqCOFINS,
			AliqFCP:       item.AliqFCP,
		}
		brutos[i] = calculos[i].ValorBruto()
	}

	rateios, err := domfiscal.RatearDespesas(brutos, pedido.Frete, pedido.Seguro, pedido.Desconto)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrEntradaInvalida, err)
	}

	itens := make([]entity.NotaItem, len(pedido.Itens))
	for i, calc := range calculos {
		trib, cfop, err := domfiscal.CalcularItem(calc, op, rateios[i])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrEntradaInvalida, err)
		}
		unidade := pedido.Itens[i].Unidade
		if unidade == "" {
			unidade = pkgnfe.UnidadeComercial
		}
		itens[i] = entity.NotaItem{
			ID:            uuid.New().String(),
			Ordem:         calc.Ordem,
			Codigo:        pedido.Itens[i].Codigo,
			Descricao:     pedido.Itens[i].Descricao,
			NCM:           calc.NCM,
			CFOP:          cfop,
			GTIN:          calc.GTIN,
			Unidade:       unidade,
			Quantidade:    calc.Quantidade,
			ValorUnitario: calc.ValorUnitario,
			ValorBruto:    brutos[i],
			ValorDesconto: domfiscal.Arredondar(calc.Desconto.Add(rateios[i].Desconto)),
			ValorFrete:    rateios[i].Frete,
			ValorSeguro:   rateios[i].Seguro,
			Tributos:      trib,
		}
	}

	totais, err := domfiscal.TotalizarNota(itens)
	if err != nil {
		return nil, nil, err
	}

	nota := &entity.NotaFiscal{
		ID:           uuid.New().String(),
		Serie:        s.cfg.Serie,
		Modelo:       s.cfg.Modelo,
		TipoEmissao:  pkgnfe.EmissaoNormal,
		Emitente:     pedido.Emitente,
		Destinatario: pedido.Destinatario,

		ValorProdutos: totais.ValorProdutos,
		ValorFrete:    totais.ValorFrete,
		ValorSeguro:   totais.ValorSeguro,
		ValorDesconto: totais.ValorDesconto,
		ValorTotal:    totais.ValorTotal,

		BaseICMS:    totais.BaseICMS,
		ValorICMS:   totais.ValorICMS,
		BaseICMSST:  totais.BaseICMSST,
		ValorICMSST: totais.ValorICMSST,
		ValorIPI:    totais.ValorIPI,
		ValorPIS:    totais.ValorPIS,
		ValorCOFINS: totais.ValorCOFINS,
		ValorFCP:    totais.ValorFCP,
		ValorIBS:    totais.ValorIBS,
		ValorCBS:    totais.ValorCBS,

		Status:                entity.StatusPendente,
		DataEmissao:           agora,
		InformacoesAdicionais: pedido.InformacoesAdicionais,
		CriadaEm:              agora,
		AtualizadaEm:          agora,
	}
	return nota, itens, nil
}

// assinar delega ao assinador; fora de produção a falha degrada para envio sem
// assinatura (o autorizador rejeita, mas o fluxo fica testável sem certificado).
// Em produção a falha é terminal.
func (s *Service) assinar(xmlDoc []byte, elemento string) ([]byte, error) {
	assinado, err := s.assinador.Assinar(xmlDoc, elemento)
	if err == nil {
		return assinado, nil
	}
	if s.producao() {
		return nil, fmt.Errorf("%w: %v", domain.ErrAssinatura, err)
	}
	s.log.Warn().Err(err).
		Str("elemento", elemento).
		Msg("assinatura indisponível fora de produção, enviando documento sem assinar")
	return xmlDoc, nil
}

// aplicarDesfechoNota traduz o retorno da SEFAZ para o estado da nota.
func (s *Service) aplicarDesfechoNota(nota *entity.NotaFiscal, ret *sefaz.Retorno, xmlAssinado []byte) {
	agora := s.agora()
	nota.AtualizadaEm = agora

	switch {
	case ret.Autorizado():
		nota.Status = entity.StatusAutorizada
		nota.Protocolo = ret.Protocolo
		nota.Recibo = ""
		nota.CodigoRejeicao = ""
		nota.MotivoRejeicao = ""
		nota.DataAutorizacao = &agora
		if proc, err := infranfe.MontarProcNFe(xmlAssinado, ret.XMLBruto); err == nil {
			nota.XMLAutorizado = string(proc)
		} else {
			s.log.Warn().Err(err).Str("nota_id", nota.ID).Msg("não foi possível montar o nfeProc")
			nota.XMLAutorizado = string(ret.XMLBruto)
		}
		s.log.Info().
			Str("nota_id", nota.ID).
			Str("protocolo", nota.Protocolo).
			Msg("nota autorizada")
	case ret.EmProcessamento():
		nota.Recibo = ret.Recibo
		s.log.Info().
			Str("nota_id", nota.ID).
			Str("recibo", nota.Recibo).
			Msg("lote recebido, aguardando processamento")
	default:
		// Rejeição de negócio: permanece PENDENTE com o motivo verbatim.
		nota.CodigoRejeicao = ret.CStat
		nota.MotivoRejeicao = ret.XMotivo
		nota.Recibo = ""
		s.log.Warn().
			Str("nota_id", nota.ID).
			Str("cstat", ret.CStat).
			Str("motivo", ret.XMotivo).
			Msg("nota rejeitada pela SEFAZ")
	}
}

// persistirDesfechoNota grava o desfecho numa transação própria (transação 2
// do fluxo de emissão).
func (s *Service) persistirDesfechoNota(ctx context.Context, nota *entity.NotaFiscal) error {
	err := s.tx.Run(ctx, func(
		notaRepo repository.NotaFiscalRepository,
		_ repository.EventoRepository,
		_ repository.NumeracaoRepository,
	) error {
		return notaRepo.UpdateDesfecho(ctx, nota)
	})
	if err != nil {
		// A SEFAZ já registrou o desfecho; perder o update local é uma
		// inconsistência que precisa aparecer alto no log.
		s.log.Error().Err(err).
			Str("nota_id", nota.ID).
			Str("status", nota.Status).
			Msg("desfecho recebido da SEFAZ mas não persistido")
		return fmt.Errorf("persistir desfecho da nota %s: %w", nota.ID, err)
	}
	return nil
}
