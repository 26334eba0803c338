package mailer

import (
	"fmt"
	"html"
)

// Template builders render the transactional mails the marketplace sends.
// Copy mirrors the storefront's Japanese UI.

// OrderConfirmed is sent to the buyer once payment is captured.
func OrderConfirmed(to, itemTitle string, amount int) Message {
	title := html.EscapeString(itemTitle)
	return Message{
		To:      []string{to},
		Subject: "ご注文が確定しました",
		HTML: fmt.Sprintf(
			"<p>「%s」のご注文が確定しました。</p><p>お支払い金額: %s</p><p>出品者の発送をお待ちください。</p>",
			title, yen(amount)),
	}
}

// ShipNow asks the seller to ship a sold item.
func ShipNow(to, itemTitle string) Message {
	title := html.EscapeString(itemTitle)
	return Message{
		To:      []string{to},
		Subject: "商品が購入されました - 発送をお願いします",
		HTML: fmt.Sprintf(
			"<p>「%s」が購入されました。</p><p>マイページから発送手続きを行ってください。</p>",
			title),
	}
}

// ItemShipped tells the buyer the item is on its way.
func ItemShipped(to, itemTitle, trackingNumber, carrier string) Message {
	title := html.EscapeString(itemTitle)
	body := fmt.Sprintf("<p>「%s」が発送されました。</p>", title)
	if trackingNumber != "" {
		body += fmt.Sprintf("<p>配送業者: %s<br>追跡番号: %s</p>",
			html.EscapeString(carrier), html.EscapeString(trackingNumber))
	}
	body += "<p>商品が届いたら受取確認を行ってください。</p>"
	return Message{
		To:      []string{to},
		Subject: "商品が発送されました",
		HTML:    body,
	}
}

// FundsReleased tells the seller the buyer confirmed receipt and earnings are
// available.
func FundsReleased(to, itemTitle string, netEarnings int) Message {
	title := html.EscapeString(itemTitle)
	return Message{
		To:      []string{to},
		Subject: "取引が完了しました",
		HTML: fmt.Sprintf(
			"<p>「%s」の取引が完了しました。</p><p>売上金 %s が残高に反映されました。</p>",
			title, yen(netEarnings)),
	}
}

// PayoutRequested notifies operators that a seller requested a bank transfer.
func PayoutRequested(to []string, sellerEmail string, gross, fee, net int) Message {
	return Message{
		To:      to,
		Subject: "振込申請がありました",
		HTML: fmt.Sprintf(
			"<p>%s から振込申請がありました。</p><p>申請額(総額): %s<br>振込手数料: %s<br>振込額: %s</p>",
			html.EscapeString(sellerEmail), yen(gross), yen(fee), yen(net)),
	}
}

func yen(amount int) string {
	return fmt.Sprintf("¥%d", amount)
}
